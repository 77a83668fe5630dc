package bootstrap

import (
	"strings"

	"triage-flows/internal/flow"
)

const (
	// DefaultFlowID is the template id; stored copies use DefaultFlowIDFor.
	DefaultFlowID   = "11111111-2222-3333-4444-555555555555"
	DefaultPriority = 999
	DefaultChannel  = "whatsapp"

	// MetaVariable names the binding a data-collection step stores the reply in.
	MetaVariable = "variable"
	// MetaNucleoRoutes maps option values of the main menu to nucleo ids.
	MetaNucleoRoutes = "nucleoRoutes"
)

// NucleoIDs are the routing targets the default menu hands off to.
type NucleoIDs struct {
	Support string
	Finance string
	Sales   string
	General string
}

var returningCustomer = []flow.Branch{
	{If: "__clienteCadastrado == true", Then: "confirmar-dados-cliente"},
}

// DefaultFlow is the WhatsApp triage menu every company starts with.
func DefaultFlow(n NucleoIDs) flow.Document {
	return flow.Document{
		ID:          DefaultFlowID,
		Name:        "Fluxo Padrao WhatsApp",
		Description: "Fluxo padrão para triagem automatizada no WhatsApp",
		Kind:        flow.KindSimpleMenu,
		Channels:    []string{DefaultChannel},
		Priority:    DefaultPriority,
		Active:      true,
		Structure: flow.Structure{
			InitialStep:   "boas-vindas",
			SchemaVersion: "1.1.0",
			Steps:         defaultSteps(n),
		},
	}
}

func defaultSteps(n NucleoIDs) map[string]flow.Step {
	lines := func(l ...string) string { return strings.Join(l, "\n") }

	return map[string]flow.Step{
		"boas-vindas": {
			ID:   "boas-vindas",
			Kind: flow.StepInteractive,
			Message: lines(
				"👋 Olá! Eu sou a assistente virtual da ConectCRM.",
				"Escolha uma das opções abaixo para continuar:",
				"",
				"1️⃣ Suporte técnico (instabilidade, integrações, dúvidas na plataforma)",
				"2️⃣ Financeiro (boletos, notas fiscais, renegociação)",
				"3️⃣ Comercial (planos, propostas ou novas soluções)",
				"4️⃣ Acompanhar status de um atendimento existente",
				"0️⃣ Falar direto com um atendente humano",
				"",
				"❌ Digite SAIR para cancelar",
			),
			Options: []flow.Option{
				{ID: "1", Text: "Suporte técnico", Value: "1", NextStep: "coleta-nome", ConditionalNext: returningCustomer},
				{ID: "2", Text: "Financeiro", Value: "2", NextStep: "coleta-nome", ConditionalNext: returningCustomer},
				{ID: "3", Text: "Comercial", Value: "3", NextStep: "coleta-nome", ConditionalNext: returningCustomer},
				{ID: "4", Text: "Acompanhar status de atendimento", Value: "4", NextStep: "coleta-protocolo"},
				{ID: "0", Text: "Falar com atendente humano", Value: "0", NextStep: "coleta-nome", ConditionalNext: returningCustomer},
				{ID: "sair", Text: "Cancelar atendimento", Value: "sair"},
			},
			Metadata: flow.Metadata{
				flow.MetaAutoDetectContact:       true,
				flow.MetaPersonalizeExisting:     true,
				flow.MetaUseNameIfAvailable:      true,
				flow.MetaExistingCustomerMessage: "👋 Olá{{#if firstName}}, {{firstName}}{{/if}}! Que bom falar com você de novo. Escolha uma opção:\n\n1️⃣ Suporte técnico\n2️⃣ Financeiro\n3️⃣ Comercial\n4️⃣ Acompanhar atendimento\n0️⃣ Atendente humano",
				MetaNucleoRoutes: map[string]any{
					"1": n.Support,
					"2": n.Finance,
					"3": n.Sales,
					"0": n.General,
				},
			},
		},
		"coleta-nome": {
			ID:       "coleta-nome",
			Kind:     flow.StepMessage,
			Message:  "Antes de prosseguirmos, poderia me informar seu nome completo?\n\n💡 Digite SAIR para cancelar",
			NextStep: "coleta-contato",
			Metadata: flow.Metadata{MetaVariable: "nomeCliente"},
		},
		"coleta-contato": {
			ID:       "coleta-contato",
			Kind:     flow.StepMessage,
			Message:  "Anotei, {{nomeCliente}}! Qual o melhor telefone ou e-mail para retornarmos, caso seja necessário?\n\n💡 Digite SAIR para cancelar",
			NextStep: "coleta-resumo",
			Metadata: flow.Metadata{MetaVariable: "contatoPreferencial"},
		},
		"confirmar-dados-cliente": {
			ID:   "confirmar-dados-cliente",
			Kind: flow.StepInteractive,
			Message: lines(
				"✅ Encontrei seu cadastro em nosso sistema:",
				"",
				"👤 Nome: {{nome}}",
				"📧 Email: {{email}}",
				"🏢 Empresa: {{empresa}}",
				"",
				"Esses dados estão corretos?",
			),
			Options: []flow.Option{
				{ID: "1", Text: "Sim, pode continuar", Value: "1", NextStep: "coleta-resumo"},
				{ID: "2", Text: "Atualizar meus dados", Value: "2", NextStep: "coleta-nome"},
				{ID: "sair", Text: "Cancelar atendimento", Value: "sair"},
			},
		},
		"coleta-resumo": {
			ID:       "coleta-resumo",
			Kind:     flow.StepMessage,
			Message:  "Perfeito! Conte rapidamente em poucas palavras qual é o motivo do seu contato.\n\n💡 Digite SAIR para cancelar",
			NextStep: "confirmar-transferencia",
			Metadata: flow.Metadata{MetaVariable: "resumoSolicitacao"},
		},
		"confirmar-transferencia": {
			ID:      "confirmar-transferencia",
			Kind:    flow.StepInteractive,
			Message: "Obrigado{{#if nomeCliente}}, {{nomeCliente}}{{/if}}! Vou te direcionar para nossa equipe de {{areaTitulo}}. Está tudo certo?",
			Options: []flow.Option{
				{ID: "1", Text: "Sim, pode encaminhar agora", Value: "1"},
				{ID: "2", Text: "Não, quero escolher outra opção", Value: "2", NextStep: "reiniciar"},
				{ID: "sair", Text: "Cancelar atendimento", Value: "sair"},
			},
		},
		"reiniciar": {
			ID:      "reiniciar",
			Kind:    flow.StepInteractive,
			Message: "Sem problemas! Vamos recomeçar. Escolha novamente a opção que melhor representa o seu atendimento.",
			Options: []flow.Option{
				{ID: "1", Text: "Voltar ao menu inicial", Value: "1", NextStep: "boas-vindas"},
			},
		},
		"coleta-protocolo": {
			ID:       "coleta-protocolo",
			Kind:     flow.StepMessage,
			Message:  "Informe, por favor, o número do protocolo ou ticket (se tiver). Se não tiver, pode descrever o atendimento que deseja acompanhar.",
			NextStep: "retorno-status",
			Metadata: flow.Metadata{MetaVariable: "numeroTicket"},
		},
		"retorno-status": {
			ID:      "retorno-status",
			Kind:    flow.StepInteractive,
			Message: "Obrigado! Já registrei o atendimento {{numeroTicket}}. Deseja que nossa equipe retorne com a atualização ou prefere falar com alguém agora?",
			Options: []flow.Option{
				{ID: "1", Text: "Aguardo o retorno da equipe", Value: "1"},
				{ID: "2", Text: "Quero falar com um atendente agora", Value: "2", NextStep: "coleta-nome"},
			},
		},
	}
}
