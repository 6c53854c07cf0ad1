package service

type PasswordService interface {
	Hash(password string) (string, error)
	// Compare reports whether password matches hash, and whether a matching
	// hash was produced under an outdated cost and should be replaced.
	Compare(password, hash string) (rehashNeeded bool, ok bool)
}
