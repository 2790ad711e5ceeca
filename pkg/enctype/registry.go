// Package enctype classifies Kerberos encryption type and keysalt strings.
//
// Enctype naming in krb5 is a many-to-many alias graph: several names mean
// the same cipher and umbrella names such as "aes" select several ciphers at
// once. The registry therefore models classes that each own a set of
// aliases, and canonicalization returns every class an alias belongs to.
package enctype

import (
	"sort"

	"github.com/jcmturner/gokrb5/v8/iana/etypeID"
)

// Class is one canonical encryption type.
type Class struct {
	// ID is the canonical name, e.g. "aes256/sha1". It intentionally differs
	// from every krb5 alias.
	ID string

	// IANA is the assigned enctype number as found in keytabs and on the wire.
	IANA int32

	// Aliases are the names krb5 accepts for this class.
	Aliases []string

	// LegacyUnsupported marks classes the target platform no longer supports.
	LegacyUnsupported bool

	// Broken marks cryptographically insecure classes.
	Broken bool
}

var registry = []Class{
	{ID: "des/crc32", IANA: etypeID.DES_CBC_CRC, Aliases: []string{"des-cbc-crc", "des"}, LegacyUnsupported: true, Broken: true},
	{ID: "des/md4", IANA: etypeID.DES_CBC_MD4, Aliases: []string{"des-cbc-md4", "des"}, LegacyUnsupported: true, Broken: true},
	{ID: "des/md5", IANA: etypeID.DES_CBC_MD5, Aliases: []string{"des-cbc-md5", "des"}, LegacyUnsupported: true, Broken: true},
	{ID: "des/sha1", IANA: etypeID.DES_HMAC_SHA1, Aliases: []string{"des-hmac-sha1"}, LegacyUnsupported: true, Broken: true},
	{ID: "des/raw", IANA: etypeID.DES_CBC_RAW, Aliases: []string{"des-cbc-raw"}, LegacyUnsupported: true, Broken: true},
	{ID: "des3/raw", IANA: etypeID.DES3_CBC_RAW, Aliases: []string{"des3-cbc-raw"}, LegacyUnsupported: true, Broken: true},
	{ID: "des3/sha1", IANA: etypeID.DES3_CBC_SHA1_KD, Aliases: []string{"des3-cbc-sha1", "des3-hmac-sha1", "des3-cbc-sha1-kd", "des3"}, LegacyUnsupported: true, Broken: true},
	{ID: "aes256/sha1", IANA: etypeID.AES256_CTS_HMAC_SHA1_96, Aliases: []string{"aes256-cts-hmac-sha1-96", "aes256-cts", "aes256-sha1", "aes"}},
	{ID: "aes128/sha1", IANA: etypeID.AES128_CTS_HMAC_SHA1_96, Aliases: []string{"aes128-cts-hmac-sha1-96", "aes128-cts", "aes128-sha1", "aes"}},
	{ID: "aes256/sha2", IANA: etypeID.AES256_CTS_HMAC_SHA384_192, Aliases: []string{"aes256-cts-hmac-sha384-192", "aes256-sha2", "aes"}},
	{ID: "aes128/sha2", IANA: etypeID.AES128_CTS_HMAC_SHA256_128, Aliases: []string{"aes128-cts-hmac-sha256-128", "aes128-sha2", "aes"}},
	{ID: "rc4/md5", IANA: etypeID.RC4_HMAC, Aliases: []string{"arcfour-hmac", "rc4-hmac", "arcfour-hmac-md5", "rc4"}, Broken: true},
	{ID: "rc4/export", IANA: etypeID.RC4_HMAC_EXP, Aliases: []string{"arcfour-hmac-exp", "rc4-hmac-exp", "arcfour-hmac-md5-exp"}, Broken: true},
	{ID: "camellia/256", IANA: etypeID.CAMELLIA256_CTS_CMAC, Aliases: []string{"camellia256-cts-cmac", "camellia256-cts", "camellia"}},
	{ID: "camellia/128", IANA: etypeID.CAMELLIA128_CTS_CMAC, Aliases: []string{"camellia128-cts-cmac", "camellia128-cts", "camellia"}},
}

// Lookup tables derived from registry in init and read-only afterwards.
var (
	byID    map[string]*Class
	byIANA  map[int32]*Class
	byAlias map[string][]string
)

func init() {
	byID = make(map[string]*Class, len(registry))
	byIANA = make(map[int32]*Class, len(registry))
	byAlias = make(map[string][]string)

	for i := range registry {
		c := &registry[i]
		byID[c.ID] = c
		byIANA[c.IANA] = c
		for _, alias := range c.Aliases {
			byAlias[alias] = append(byAlias[alias], c.ID)
		}
	}
}

// Classes returns every registered class in registry order.
func Classes() []Class {
	out := make([]Class, len(registry))
	copy(out, registry)
	return out
}

// Lookup returns the class with the given canonical id.
func Lookup(id string) (Class, bool) {
	c, ok := byID[id]
	if !ok {
		return Class{}, false
	}
	return *c, true
}

// ByIANA returns the class with the given enctype number.
func ByIANA(n int32) (Class, bool) {
	c, ok := byIANA[n]
	if !ok {
		return Class{}, false
	}
	return *c, true
}

// Aliases returns every alias known to the registry, sorted.
func Aliases() []string {
	out := make([]string, 0, len(byAlias))
	for alias := range byAlias {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}

func isLegacy(id string) bool {
	c, ok := byID[id]
	return ok && c.LegacyUnsupported
}

func isBroken(id string) bool {
	c, ok := byID[id]
	return ok && c.Broken
}

// Salt is a krb5 salt type.
type Salt string

const (
	SaltNormal    Salt = "normal"
	SaltV4        Salt = "v4"
	SaltNoRealm   Salt = "norealm"
	SaltOnlyRealm Salt = "onlyrealm"
	SaltAFS3      Salt = "afs3"
	SaltSpecial   Salt = "special"
)

var salts = map[Salt]bool{
	SaltNormal:    false,
	SaltV4:        true,
	SaltNoRealm:   false,
	SaltOnlyRealm: false,
	SaltAFS3:      true,
	SaltSpecial:   false,
}

// ParseSalt returns the salt named s.
func ParseSalt(s string) (Salt, bool) {
	_, ok := salts[Salt(s)]
	return Salt(s), ok
}

// Legacy reports whether the target platform no longer supports the salt.
func (s Salt) Legacy() bool {
	return salts[s]
}

// Salts returns every known salt, sorted.
func Salts() []Salt {
	out := make([]Salt, 0, len(salts))
	for s := range salts {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
