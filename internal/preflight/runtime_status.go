package preflight

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CardProbe reports one removable storage device detected on the host.
type CardProbe struct {
	Device     string
	Label      string
	FSType     string
	MountPoint string
}

// ProbeCards lists removable partitions via lsblk. Camera cards show up as
// removable block devices carrying a filesystem (typically exfat or vfat);
// fixed disks and empty card readers are filtered out.
func ProbeCards() []CardProbe {
	if _, err := exec.LookPath("lsblk"); err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "lsblk", "-P", "-o", "NAME,LABEL,FSTYPE,RM,MOUNTPOINT")
	output, err := cmd.Output()
	if err != nil {
		return nil
	}
	return ParseCardList(string(output))
}

// ParseCardList extracts removable, filesystem-bearing entries from
// lsblk -P output (one KEY="value" pair list per line).
func ParseCardList(output string) []CardProbe {
	var cards []CardProbe
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := parseCardPairs(line)
		if fields["RM"] != "1" {
			continue
		}
		fstype := strings.ToLower(strings.TrimSpace(fields["FSTYPE"]))
		if fstype == "" {
			continue
		}
		name := strings.TrimSpace(fields["NAME"])
		if name == "" {
			continue
		}
		cards = append(cards, CardProbe{
			Device:     "/dev/" + name,
			Label:      fields["LABEL"],
			FSType:     fstype,
			MountPoint: fields["MOUNTPOINT"],
		})
	}
	return cards
}

// parseCardPairs splits a single lsblk -P line into its KEY="value" fields.
// Values are scanned up to the closing quote so mount points containing
// spaces survive intact.
func parseCardPairs(line string) map[string]string {
	result := make(map[string]string)
	rest := line
	for rest != "" {
		eq := strings.Index(rest, "=")
		if eq < 0 {
			break
		}
		key := strings.TrimSpace(rest[:eq])
		rest = rest[eq+1:]
		if !strings.HasPrefix(rest, "\"") {
			break
		}
		rest = rest[1:]
		end := strings.Index(rest, "\"")
		if end < 0 {
			break
		}
		result[key] = rest[:end]
		rest = strings.TrimSpace(rest[end+1:])
	}
	return result
}

// CardDetail renders a display-friendly summary for status UIs.
func (p CardProbe) CardDetail() string {
	label := p.Label
	if label == "" {
		label = "unlabeled"
	}
	if p.MountPoint != "" {
		return fmt.Sprintf("%s card '%s' at %s", strings.ToUpper(p.FSType), label, p.MountPoint)
	}
	return fmt.Sprintf("%s card '%s' on %s (not mounted)", strings.ToUpper(p.FSType), label, p.Device)
}
