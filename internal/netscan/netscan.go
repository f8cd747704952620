// Package netscan finds newly attached devices on the install LAN: an nmap
// ping sweep followed by an SSH probe of every responding host.
package netscan

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/HenryPDT/edgeprov/internal/runner"
)

// Host is one responder from the ping sweep.
type Host struct {
	Addr     string
	Hostname string
}

// Device is a host that answered the SSH probe.
type Device struct {
	Addr     string
	Hostname string
	Model    string
	Kind     string // "jetson" or "x86"
}

// Sweep pings the CIDR with nmap and returns the responding hosts.
func Sweep(ctx context.Context, r runner.Runner, cidr string) ([]Host, error) {
	out, err := r.Run(ctx, "nmap", "-sn", "-oG", "-", cidr)
	if err != nil {
		return nil, fmt.Errorf("nmap sweep of %s: %w", cidr, err)
	}
	return ParseSweep(out), nil
}

// ParseSweep reads nmap's grepable output: one "Host: <ip> (<name>)" line
// per responder, Status: Up.
func ParseSweep(out []byte) []Host {
	var hosts []Host
	for _, line := range strings.Split(string(out), "\n") {
		if !strings.HasPrefix(line, "Host:") || !strings.Contains(line, "Status: Up") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		h := Host{Addr: fields[1]}
		if len(fields) >= 3 && strings.HasPrefix(fields[2], "(") {
			h.Hostname = strings.Trim(fields[2], "()")
		}
		hosts = append(hosts, h)
	}
	return hosts
}

// Identifier probes hosts over SSH with the shared install credentials.
type Identifier struct {
	User     string
	Password string
	Timeout  time.Duration

	// run executes one command on a remote host; swapped in tests.
	run func(addr, cmd string) (string, error)
}

func NewIdentifier(user, password string) *Identifier {
	id := &Identifier{User: user, Password: password, Timeout: 5 * time.Second}
	id.run = id.sshRun
	return id
}

func (i *Identifier) sshRun(addr, cmd string) (string, error) {
	cfg := &ssh.ClientConfig{
		User:            i.User,
		Auth:            []ssh.AuthMethod{ssh.Password(i.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // install LAN, hosts are brand new
		Timeout:         i.Timeout,
	}
	client, err := ssh.Dial("tcp", addr+":22", cfg)
	if err != nil {
		return "", err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return "", err
	}
	defer session.Close()

	out, err := session.CombinedOutput(cmd)
	return string(out), err
}

// Identify logs into the host and reads its hardware model; boards without a
// device tree (x86) fall back to the hostname.
func (i *Identifier) Identify(h Host) (Device, error) {
	out, err := i.run(h.Addr, "cat /proc/device-tree/model 2>/dev/null || uname -n")
	if err != nil {
		return Device{}, fmt.Errorf("ssh %s@%s: %w", i.User, h.Addr, err)
	}
	model := strings.TrimRight(strings.TrimSpace(out), "\x00")
	return Device{
		Addr:     h.Addr,
		Hostname: h.Hostname,
		Model:    model,
		Kind:     Classify(model),
	}, nil
}

// Classify maps a hardware model string to the device kind.
func Classify(model string) string {
	if strings.Contains(model, "NVIDIA") || strings.Contains(model, "Jetson") {
		return "jetson"
	}
	return "x86"
}
