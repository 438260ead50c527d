package models

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type AccountResponse struct {
	ID       string `json:"id"`
	Nome     string `json:"nome"`
	NomeBase string `json:"nome_base"`
	Role     string `json:"role"`
}

type ProfileResponse struct {
	Nome string  `json:"nome"`
	Foto *string `json:"foto"`
}

// MeResponse describes the logged-in user.
type MeResponse struct {
	Nome    string                            `json:"nome"`
	Foto    *string                           `json:"foto"`
	Config  UserConfig                        `json:"config"`
	Tabelas map[string]map[string]interface{} `json:"tabelas"`
}

type ConfigResponse struct {
	Config UserConfig `json:"config"`
}
