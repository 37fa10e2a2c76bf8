package ledger

import "fmt"

// AccountID is the textual (strkey-less) identity of an account. The
// core overlay treats it as an opaque comparable value; rendering to and
// from the network's strkey alphabet lives outside this module.
type AccountID string

// AssetType distinguishes the native asset from issued ones.
type AssetType int

const (
	AssetTypeNative AssetType = iota
	AssetTypeIssued
)

// Asset identifies a native or issued asset. Two Assets are Equal iff they
// have the same type and, for issued assets, the same code and issuer.
type Asset struct {
	Type   AssetType
	Code   string
	Issuer AccountID
}

// NativeAsset returns the network's native asset.
func NativeAsset() Asset {
	return Asset{Type: AssetTypeNative}
}

// IssuedAsset returns an issued asset identified by code and issuer.
func IssuedAsset(code string, issuer AccountID) Asset {
	return Asset{Type: AssetTypeIssued, Code: code, Issuer: issuer}
}

// Equals reports whether a and b identify the same asset.
func (a Asset) Equals(b Asset) bool {
	if a.Type != b.Type {
		return false
	}
	if a.Type == AssetTypeNative {
		return true
	}
	return a.Code == b.Code && a.Issuer == b.Issuer
}

func (a Asset) String() string {
	if a.Type == AssetTypeNative {
		return "native"
	}
	return fmt.Sprintf("%s:%s", a.Code, a.Issuer)
}

// Price is a rational price expressed as a fraction, matching
// stellar-core's representation: comparisons cross-multiply rather than
// convert to floating point, so two prices with different representations
// of the same ratio compare equal even though they are not Go-equal.
type Price struct {
	N int32
	D int32
}

// Less reports whether p represents a strictly smaller ratio than other.
func (p Price) Less(other Price) bool {
	return int64(p.N)*int64(other.D) < int64(other.N)*int64(p.D)
}

// Equal reports whether p and other represent the same ratio.
func (p Price) Equal(other Price) bool {
	return int64(p.N)*int64(other.D) == int64(other.N)*int64(p.D)
}
