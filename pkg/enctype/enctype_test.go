package enctype

import (
	"errors"
	"testing"

	"github.com/marmos91/krb5audit/pkg/diag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const target = "RHEL 8"

func requireEnctypeErr(t *testing.T, err error, sentinel error) *Error {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel), "expected %v, got %v", sentinel, err)
	var e *Error
	require.True(t, errors.As(err, &e))
	return e
}

// ============================================================================
// Registry
// ============================================================================

func TestRegistry_EveryAliasCanonicalizesToOwner(t *testing.T) {
	for _, c := range Classes() {
		for _, alias := range c.Aliases {
			got, err := Canonicalize(alias)
			require.NoError(t, err, "alias %q", alias)
			assert.True(t, got.Has(c.ID), "alias %q should include %s, got %s", alias, c.ID, got)
		}
	}
}

func TestRegistry_Lookups(t *testing.T) {
	c, ok := Lookup("aes256/sha1")
	require.True(t, ok)
	assert.Equal(t, int32(18), c.IANA)
	assert.False(t, c.Broken)
	assert.False(t, c.LegacyUnsupported)

	c, ok = ByIANA(23)
	require.True(t, ok)
	assert.Equal(t, "rc4/md5", c.ID)
	assert.True(t, c.Broken)
	assert.False(t, c.LegacyUnsupported)

	c, ok = ByIANA(16)
	require.True(t, ok)
	assert.Equal(t, "des3/sha1", c.ID)

	_, ok = ByIANA(9999)
	assert.False(t, ok)
	_, ok = Lookup("aes")
	assert.False(t, ok, "aliases are not canonical ids")
}

func TestRegistry_LegacyClassesAreBroken(t *testing.T) {
	for _, c := range Classes() {
		if c.LegacyUnsupported {
			assert.True(t, c.Broken, "%s is legacy but not broken", c.ID)
		}
	}
}

func TestRegistry_ClassesIsACopy(t *testing.T) {
	cs := Classes()
	cs[0].ID = "mutated"
	_, ok := Lookup("des/crc32")
	assert.True(t, ok)
	assert.Equal(t, "des/crc32", Classes()[0].ID)
}

func TestSalts(t *testing.T) {
	assert.Len(t, Salts(), 6)
	for _, s := range []Salt{SaltV4, SaltAFS3} {
		assert.True(t, s.Legacy(), "%s", s)
	}
	for _, s := range []Salt{SaltNormal, SaltNoRealm, SaltOnlyRealm, SaltSpecial} {
		assert.False(t, s.Legacy(), "%s", s)
	}
	_, ok := ParseSalt("pepper")
	assert.False(t, ok)
}

// ============================================================================
// Canonicalization
// ============================================================================

func TestCanonicalize_AmbiguousAliases(t *testing.T) {
	tests := []struct {
		alias string
		want  []string
	}{
		{"aes", []string{"aes128/sha1", "aes128/sha2", "aes256/sha1", "aes256/sha2"}},
		{"des", []string{"des/crc32", "des/md4", "des/md5"}},
		{"camellia", []string{"camellia/128", "camellia/256"}},
		{"rc4", []string{"rc4/md5"}},
		{"aes256-cts", []string{"aes256/sha1"}},
	}
	for _, tt := range tests {
		t.Run(tt.alias, func(t *testing.T) {
			got, err := Canonicalize(tt.alias)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Sorted())
		})
	}
}

func TestCanonicalize_Deprecated(t *testing.T) {
	for _, alias := range Aliases() {
		plain, err := Canonicalize(alias)
		require.NoError(t, err)
		marked, err := Canonicalize("DEPRECATED:" + alias)
		require.NoError(t, err)
		assert.Equal(t, plain, marked, "alias %q", alias)
	}
}

func TestCanonicalize_Unsupported(t *testing.T) {
	for _, raw := range []string{"UNSUPPORTED:des", "UNSUPPORTED:aes", "UNSUPPORTED:whatever"} {
		_, err := Canonicalize(raw)
		e := requireEnctypeErr(t, err, ErrUnsupported)
		assert.Equal(t, raw, e.Token)
		assert.Equal(t, "Unsupported enctype/keysalt: "+raw, err.Error())
	}
}

func TestCanonicalize_UnrecognizedIsStable(t *testing.T) {
	_, err1 := Canonicalize("rot13-bogus")
	_, err2 := Canonicalize("rot13-bogus")
	requireEnctypeErr(t, err1, ErrUnrecognized)
	requireEnctypeErr(t, err2, ErrUnrecognized)
	assert.Equal(t, err1.Error(), err2.Error())
	assert.Equal(t, "enctype rot13-bogus is not recognized by krb5!", err1.Error())
}

func TestCanonicalize_CaseSensitive(t *testing.T) {
	_, err := Canonicalize("AES")
	requireEnctypeErr(t, err, ErrUnrecognized)
}

func TestCanonicalizeList(t *testing.T) {
	got, err := CanonicalizeList("aes256-cts-hmac-sha1-96,  aes128-cts ,rc4-hmac")
	require.NoError(t, err)
	assert.Equal(t, []string{"aes128/sha1", "aes256/sha1", "rc4/md5"}, got.Sorted())

	_, err = CanonicalizeList("aes256-cts bogus")
	requireEnctypeErr(t, err, ErrUnrecognized)

	_, err = CanonicalizeList(" , ")
	requireEnctypeErr(t, err, ErrUnrecognized)
}

func TestCanonicalizeKeysaltList(t *testing.T) {
	classes, salts, err := CanonicalizeKeysaltList("aes256-cts-hmac-sha1-96:normal des-cbc-crc:v4 DEPRECATED:des3-cbc-sha1:afs3 camellia128-cts")
	require.NoError(t, err)
	assert.Equal(t, []string{"aes256/sha1", "camellia/128", "des/crc32", "des3/sha1"}, classes.Sorted())
	assert.Equal(t, []string{"afs3", "normal", "v4"}, salts.Sorted())
}

func TestCanonicalizeKeysaltList_Errors(t *testing.T) {
	_, _, err := CanonicalizeKeysaltList("aes:pepper")
	e := requireEnctypeErr(t, err, ErrUnknownSalt)
	assert.Equal(t, "pepper", e.Token)

	_, _, err = CanonicalizeKeysaltList("rot13-bogus")
	requireEnctypeErr(t, err, ErrUnrecognized)

	_, _, err = CanonicalizeKeysaltList("aes:normal UNSUPPORTED:des-cbc-crc:normal")
	requireEnctypeErr(t, err, ErrUnsupported)
}

// ============================================================================
// Checks
// ============================================================================

func TestCheckList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "clean aes list",
			raw:  "aes256-cts-hmac-sha1-96 aes128-cts-hmac-sha1-96",
			want: []string{},
		},
		{
			name: "rc4 only insecure",
			raw:  "arcfour-hmac-md5",
			want: []string{"Insecure enctype(s) specified in permitted_enctypes: [rc4/md5]"},
		},
		{
			name: "des is unsupported and insecure",
			raw:  "aes des-cbc-crc",
			want: []string{
				"Unsupported in RHEL 8 enctype(s) specified in permitted_enctypes: [des/crc32]",
				"Insecure enctype(s) specified in permitted_enctypes: [des/crc32]",
			},
		},
		{
			name: "mixed findings sorted",
			raw:  "rc4 des3 aes",
			want: []string{
				"Unsupported in RHEL 8 enctype(s) specified in permitted_enctypes: [des3/sha1]",
				"Insecure enctype(s) specified in permitted_enctypes: [des3/sha1, rc4/md5]",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := CheckList(tt.raw, "permitted_enctypes", target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, diag.Messages(ds))
			for _, d := range ds {
				assert.Equal(t, diag.SeverityWarning, d.Severity)
				assert.Equal(t, "permitted_enctypes", d.Subject)
			}
		})
	}
}

func TestCheckList_Fatal(t *testing.T) {
	_, err := CheckList("rot13-bogus", "permitted_enctypes", target)
	requireEnctypeErr(t, err, ErrUnrecognized)
}

func TestCheckKeysaltList(t *testing.T) {
	ds, err := CheckKeysaltList("aes256-cts:normal des3-cbc-sha1:v4 aes128-cts:special", "supported_enctypes", target)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Non-RHEL 8 capable salts in supported_enctypes: [v4]",
		"Abnormal salts in supported_enctypes: [special, v4]",
		"Unsupported in RHEL 8 enctype(s) specified in supported_enctypes: [des3/sha1]",
		"Insecure enctype(s) specified in supported_enctypes: [des3/sha1]",
	}, diag.Messages(ds))

	ds, err = CheckKeysaltList("aes256-cts-hmac-sha1-96:normal aes128-cts-hmac-sha1-96:normal", "supported_enctypes", target)
	require.NoError(t, err)
	assert.Empty(t, ds)
}

func TestEnsureHasGood(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "one good key suppresses everything",
			raw:  "des-cbc-crc:v4 aes256-cts-hmac-sha1-96:normal",
			want: []string{},
		},
		{
			name: "only rc4 is supported but insecure",
			raw:  "arcfour-hmac:normal",
			want: []string{"No secure enctypes for the alice principal"},
		},
		{
			name: "only des with v4 salt",
			raw:  "des-cbc-crc:v4 des-cbc-md5:afs3",
			want: []string{
				"No RHEL 8 supported enctypes for the alice principal",
				"No secure enctypes for the alice principal",
				"No RHEL 8 supported salts for the alice principal",
			},
		},
		{
			name: "legacy salt only",
			raw:  "aes256-cts:v4",
			want: []string{"No RHEL 8 supported salts for the alice principal"},
		},
		{
			name: "mix of des and rc4",
			raw:  "des3-cbc-sha1:normal arcfour-hmac:normal",
			want: []string{"No secure enctypes for the alice principal"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := EnsureHasGood(tt.raw, "the alice principal", target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, diag.Messages(ds))
		})
	}
}

func TestEnsureHasGoodSets_EmptyIsNotAFinding(t *testing.T) {
	assert.Empty(t, EnsureHasGoodSets(NewSet(), NewSaltSet(), "nothing", target))
}

func TestSet_String(t *testing.T) {
	assert.Equal(t, "[aes128/sha1, des/crc32]", NewSet("des/crc32", "aes128/sha1").String())
	assert.Equal(t, "[]", NewSet().String())
	assert.Equal(t, "[afs3, v4]", NewSaltSet(SaltV4, SaltAFS3).String())
}
