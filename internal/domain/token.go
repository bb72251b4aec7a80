package domain

// TokenPair is the pair issued on login, register and refresh. The refresh
// token is additionally fingerprinted into the user record so only the most
// recently issued one is accepted.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
