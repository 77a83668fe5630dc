package contact

import (
	"context"
	"testing"

	"triage-flows/internal/database"
	"triage-flows/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhoneVariants(t *testing.T) {
	assert.Equal(t, []string{"551187654321", "1187654321", "11987654321", "5511987654321"}, PhoneVariants("+55 (11) 8765-4321"))
	assert.Equal(t, []string{"5511987654321", "11987654321"}, PhoneVariants("5511987654321"))
	assert.Equal(t, []string{"14155550100"}, PhoneVariants("+1 415 555 0100"))
	assert.Nil(t, PhoneVariants("abc"))
}

func TestFirstName(t *testing.T) {
	assert.Equal(t, "Maria", FirstName("  Maria da Silva "))
	assert.Equal(t, "", FirstName(""))
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "*********4321", MaskPhone("+55 11 98765-4321"))
	assert.Equal(t, "[telefone]", MaskPhone(""))
}

func TestLookup_Find(t *testing.T) {
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	empresa := "emp-1"
	other := "emp-2"
	require.NoError(t, db.Create(&models.Contact{Name: "Maria Souza", Phone: "(11) 98765-4321", Active: true, EmpresaID: &empresa}).Error)
	require.NoError(t, db.Create(&models.Contact{Name: "João Lima", Phone: "11 91234-5678", Active: true, EmpresaID: &other}).Error)
	require.NoError(t, db.Create(&models.Contact{Name: "Ana Inativa", Phone: "11 90000-1111", Active: false, EmpresaID: &empresa}).Error)

	l := NewLookup(db, empresa)
	ctx := context.Background()

	info, err := l.Find(ctx, "+55 11 98765-4321")
	require.NoError(t, err)
	assert.True(t, info.Known)
	assert.Equal(t, "Maria", info.FirstName)

	info, err = l.Find(ctx, "5511912345678")
	require.NoError(t, err)
	assert.False(t, info.Known)

	info, err = l.Find(ctx, "5511900001111")
	require.NoError(t, err)
	assert.False(t, info.Known)

	info, err = NewLookup(db, "").Find(ctx, "5511912345678")
	require.NoError(t, err)
	assert.True(t, info.Known)
	assert.Equal(t, "João", info.FirstName)
}
