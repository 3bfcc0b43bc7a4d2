package token

// Token records the minted item: the custody holder and the immutable
// metadata URI assigned at mint time. The token id is issued by the registry
// counter and never reused.
type Token struct {
	ID    uint64   `json:"id"`
	Owner [20]byte `json:"owner"`
	URI   string   `json:"uri"`
}

// Clone returns a copy of the token so callers can mutate it freely.
func (t *Token) Clone() *Token {
	if t == nil {
		return nil
	}
	clone := *t
	return &clone
}
