// Package sysinfo detects the installed krb5 release and the host platform.
package sysinfo

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/host"

	"github.com/marmos91/krb5audit/internal/logger"
	"github.com/marmos91/krb5audit/pkg/diag"
)

// DefaultTimeout bounds each probe command.
const DefaultTimeout = 10 * time.Second

// ErrKrb5NotFound is returned when no probe could determine the krb5 version.
var ErrKrb5NotFound = errors.New("couldn't detect krb5 version; is it installed?")

// Version is a krb5 release number.
type Version struct {
	Major int
	Minor int
	Raw   string
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

var versionRe = regexp.MustCompile(`(\d+)\.(\d+)`)

// ParseVersion extracts the first "major.minor" pair from probe output such
// as "Kerberos 5 release 1.18.2" or "1.18.3-6+deb11u1".
func ParseVersion(out string) (Version, error) {
	out = strings.TrimSpace(out)
	m := versionRe.FindStringSubmatch(out)
	if m == nil {
		return Version{}, fmt.Errorf("no version number in %q", out)
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	return Version{Major: major, Minor: minor, Raw: out}, nil
}

// probe is one command that may report the krb5 version.
type probe struct {
	name string
	args []string
}

// probes run in order until one succeeds: the krb5 development tools, then
// the RPM package, then the Debian package.
var probes = []probe{
	{name: "krb5-config", args: []string{"--version"}},
	{name: "rpm", args: []string{"-q", "--qf", "%{VERSION}", "krb5-libs"}},
	{name: "dpkg-query", args: []string{"-W", "-f", "${Version}", "libkrb5-3"}},
}

// Detector probes the local system.
type Detector struct {
	Timeout time.Duration

	run      func(ctx context.Context, name string, args ...string) ([]byte, error)
	hostInfo func(ctx context.Context) (*host.InfoStat, error)
}

// NewDetector returns a Detector; a zero timeout selects DefaultTimeout.
func NewDetector(timeout time.Duration) *Detector {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Detector{
		Timeout:  timeout,
		run:      output,
		hostInfo: host.InfoWithContext,
	}
}

// Krb5Version returns the installed krb5 release.
func (d *Detector) Krb5Version(ctx context.Context) (Version, error) {
	for _, p := range probes {
		out, err := d.runProbe(ctx, p)
		if err != nil {
			logger.Debug("krb5 version probe failed", logger.Command(p.name), logger.Err(err))
			continue
		}
		v, err := ParseVersion(string(out))
		if err != nil {
			logger.Debug("krb5 version probe output not understood", logger.Command(p.name), logger.Err(err))
			continue
		}
		logger.Debug("Detected krb5", logger.KeyVersion, v.String(), logger.Command(p.name))
		return v, nil
	}
	return Version{}, ErrKrb5NotFound
}

func (d *Detector) runProbe(ctx context.Context, p probe) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()
	run := d.run
	if run == nil {
		run = output
	}
	return run(ctx, p.name, p.args...)
}

// Host describes the machine. Detection is best effort: fields that cannot
// be read are left empty.
func (d *Detector) Host(ctx context.Context) diag.HostInfo {
	info := d.hostInfo
	if info == nil {
		info = host.InfoWithContext
	}
	stat, err := info(ctx)
	if err != nil || stat == nil {
		logger.Warn("Host detection failed", logger.KeyError, fmt.Sprint(err))
		return diag.HostInfo{}
	}
	return diag.HostInfo{
		Hostname:        stat.Hostname,
		Platform:        stat.Platform,
		PlatformVersion: stat.PlatformVersion,
	}
}

func output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}
