package port

// TokenFilterProvider supplies the blocked and customized token lists the
// background wallet maintains. Keys are position id + chain.
type TokenFilterProvider interface {
	// IsBlocked reports whether the user hid this token.
	IsBlocked(tokenKey string) bool

	// IsCustomized reports whether the user explicitly added this token,
	// which keeps unverified tokens visible.
	IsCustomized(tokenKey string) bool
}
