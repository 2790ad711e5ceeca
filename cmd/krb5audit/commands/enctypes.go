package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/krb5audit/pkg/enctype"
)

var enctypesCmd = &cobra.Command{
	Use:   "enctypes [token]...",
	Short: "List known enctypes or classify enctype names",
	Long: `Without arguments, list every encryption type krb5audit knows with its
IANA number, aliases and status on the target platform.

With arguments, classify each enctype name or keysalt token (for example
"aes", "des3-cbc-sha1" or "arcfour-hmac:normal"). Unrecognized tokens are
reported and make the command exit with status 1.

Examples:
  # Show the registry
  krb5audit enctypes

  # What does "aes" select?
  krb5audit enctypes aes rc4-hmac`,
	RunE: runEnctypes,
}

// enctypeRow is one registry class, or one class selected by a token.
type enctypeRow struct {
	Token     string   `json:"token,omitempty" yaml:"token,omitempty"`
	ID        string   `json:"id,omitempty" yaml:"id,omitempty"`
	IANA      int32    `json:"iana,omitempty" yaml:"iana,omitempty"`
	Aliases   []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Supported bool     `json:"supported" yaml:"supported"`
	Secure    bool     `json:"secure" yaml:"secure"`
	Error     string   `json:"error,omitempty" yaml:"error,omitempty"`
}

type enctypeList []enctypeRow

// Headers implements output.TableRenderer.
func (l enctypeList) Headers() []string {
	return []string{"Token", "Class", "IANA", "Aliases", "Supported", "Secure"}
}

// Rows implements output.TableRenderer.
func (l enctypeList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, r := range l {
		if r.Error != "" {
			rows = append(rows, []string{r.Token, "error: " + r.Error, "", "", "", ""})
			continue
		}
		rows = append(rows, []string{
			r.Token,
			r.ID,
			strconv.Itoa(int(r.IANA)),
			strings.Join(r.Aliases, ", "),
			yesNo(r.Supported),
			yesNo(r.Secure),
		})
	}
	return rows
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func classRow(token string, c enctype.Class) enctypeRow {
	return enctypeRow{
		Token:     token,
		ID:        c.ID,
		IANA:      c.IANA,
		Aliases:   c.Aliases,
		Supported: !c.LegacyUnsupported,
		Secure:    !c.Broken,
	}
}

// classify expands each token to the classes it selects. The second
// result reports whether any token was rejected.
func classify(tokens []string) (enctypeList, bool) {
	var rows enctypeList
	failed := false
	for _, token := range tokens {
		set, _, err := enctype.CanonicalizeKeysaltList(token)
		if err != nil {
			rows = append(rows, enctypeRow{Token: token, Error: err.Error()})
			failed = true
			continue
		}
		for _, id := range set.Sorted() {
			c, _ := enctype.Lookup(id)
			rows = append(rows, classRow(token, c))
		}
	}
	return rows, failed
}

func runEnctypes(cmd *cobra.Command, args []string) error {
	var rows enctypeList
	failed := false
	if len(args) == 0 {
		for _, c := range enctype.Classes() {
			rows = append(rows, classRow("", c))
		}
	} else {
		rows, failed = classify(args)
	}

	printer, err := newPrinter(cmd)
	if err != nil {
		return err
	}
	if err := printer.Print(rows); err != nil {
		return fmt.Errorf("failed to print enctypes: %w", err)
	}
	if failed {
		return &ExitError{Code: 1}
	}
	return nil
}
