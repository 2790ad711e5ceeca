package output

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/krb5audit/pkg/diag"
)

func TestPrintYAML(t *testing.T) {
	d := diag.Warning("pkinit_dh_min_bits", "EXAMPLE.COM", "pkinit_dh_min_bits is set too low").
		WithRemediation("Set pkinit_dh_min_bits = 2048")

	var buf bytes.Buffer
	require.NoError(t, PrintYAML(&buf, d))

	out := buf.String()
	assert.Contains(t, out, "severity: warning")
	assert.Contains(t, out, "subject: EXAMPLE.COM")
	assert.Contains(t, out, "- Set pkinit_dh_min_bits = 2048")
}

func TestPrintYAMLArray(t *testing.T) {
	ds := []diag.Diagnostic{
		diag.Warning("crypto_policy", "AD-SUPPORT", "RC4 (weak) permitted by crypto-policies!"),
		diag.Warning("crypto_policy", "LEGACY", "Legacy (insecure) algorithms permitted by crypto-policies!"),
	}

	var buf bytes.Buffer
	require.NoError(t, PrintYAML(&buf, ds))

	out := buf.String()
	assert.Contains(t, out, "- severity: warning")
	assert.Contains(t, out, "subject: AD-SUPPORT")
	assert.Contains(t, out, "subject: LEGACY")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestPrintYAML_WriteErrorReturned(t *testing.T) {
	d := diag.Warning("crypto_policy", "LEGACY", "Legacy (insecure) algorithms permitted by crypto-policies!")
	assert.Error(t, PrintYAML(failingWriter{}, d))
}
