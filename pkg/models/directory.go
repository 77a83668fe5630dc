package models

// MenuDepartment is a department entry shown under a nucleo in the bot menu
type MenuDepartment struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
	Open  bool   `json:"open"`
}

// MenuNucleo is a top-level entry of the bot menu
type MenuNucleo struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Priority    int              `json:"priority"`
	Open        bool             `json:"open"`
	Departments []MenuDepartment `json:"departments"`
}

// NucleoReport explains whether a nucleo reaches the bot menu and why
type NucleoReport struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Active             bool     `json:"active"`
	VisibleToBot       bool     `json:"visibleToBot"`
	Priority           int      `json:"priority"`
	TotalDepartments   int      `json:"totalDepartments"`
	VisibleDepartments int      `json:"visibleDepartments"`
	Open               bool     `json:"open"`
	Shown              bool     `json:"shown"`
	Reasons            []string `json:"reasons,omitempty"`
}
