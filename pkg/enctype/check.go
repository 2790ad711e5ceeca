package enctype

import "github.com/marmos91/krb5audit/pkg/diag"

// Check names carried by the diagnostics this package produces.
const (
	CheckUnsupportedEnctype = "unsupported_enctype"
	CheckInsecureEnctype    = "insecure_enctype"
	CheckUnsupportedSalt    = "unsupported_salt"
	CheckAbnormalSalt       = "abnormal_salt"
	CheckNoSupportedEnctype = "no_supported_enctype"
	CheckNoSecureEnctype    = "no_secure_enctype"
	CheckNoSupportedSalt    = "no_supported_salt"
)

// CheckList canonicalizes raw as an enctype list and warns when any class
// is unsupported on target and, independently, when any class is insecure.
// name identifies the setting in messages.
func CheckList(raw, name, target string) ([]diag.Diagnostic, error) {
	classes, err := CanonicalizeList(raw)
	if err != nil {
		return nil, err
	}
	return classWarnings(classes, name, target), nil
}

// CheckKeysaltList is CheckList for enctype[:salt] lists, additionally
// warning about unsupported and non-default salts.
func CheckKeysaltList(raw, name, target string) ([]diag.Diagnostic, error) {
	classes, saltSet, err := CanonicalizeKeysaltList(raw)
	if err != nil {
		return nil, err
	}

	var out []diag.Diagnostic
	if legacy := saltSet.Legacy(); len(legacy) > 0 {
		out = append(out, diag.Warning(CheckUnsupportedSalt, name,
			"Non-%s capable salts in %s: %s", target, name, legacy))
	}
	if abnormal := saltSet.Abnormal(); len(abnormal) > 0 {
		out = append(out, diag.Warning(CheckAbnormalSalt, name,
			"Abnormal salts in %s: %s", name, abnormal))
	}
	return append(out, classWarnings(classes, name, target)...), nil
}

func classWarnings(classes Set, name, target string) []diag.Diagnostic {
	var out []diag.Diagnostic
	if legacy := classes.Legacy(); len(legacy) > 0 {
		out = append(out, diag.Warning(CheckUnsupportedEnctype, name,
			"Unsupported in %s enctype(s) specified in %s: %s", target, name, legacy))
	}
	if broken := classes.Broken(); len(broken) > 0 {
		out = append(out, diag.Warning(CheckInsecureEnctype, name,
			"Insecure enctype(s) specified in %s: %s", name, broken))
	}
	return out
}

// EnsureHasGood canonicalizes raw as a keysalt list and warns when no class
// is supported on target, when no class is secure and when no salt is
// supported on target. One acceptable member anywhere in the list
// suppresses the corresponding warning.
func EnsureHasGood(raw, name, target string) ([]diag.Diagnostic, error) {
	classes, saltSet, err := CanonicalizeKeysaltList(raw)
	if err != nil {
		return nil, err
	}
	return EnsureHasGoodSets(classes, saltSet, name, target), nil
}

// EnsureHasGoodSets applies EnsureHasGood to already canonicalized sets.
func EnsureHasGoodSets(classes Set, saltSet SaltSet, name, target string) []diag.Diagnostic {
	var out []diag.Diagnostic
	if classes.allOf(isLegacy) {
		out = append(out, diag.Warning(CheckNoSupportedEnctype, name,
			"No %s supported enctypes for %s", target, name))
	}
	if classes.allOf(isBroken) {
		out = append(out, diag.Warning(CheckNoSecureEnctype, name,
			"No secure enctypes for %s", name))
	}
	if saltSet.allLegacy() {
		out = append(out, diag.Warning(CheckNoSupportedSalt, name,
			"No %s supported salts for %s", target, name))
	}
	return out
}
