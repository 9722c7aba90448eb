package releasenote

import "strings"

// extractMetadata finds the product version and the TLS and SSH library
// versions in the full document text. Misses yield sentinel values.
func (l *lexicon) extractMetadata(text string) Metadata {
	meta := Metadata{
		Version: UnknownVersion,
		Security: SecurityComponents{
			TLS: l.tls.version(text),
			SSH: l.ssh.version(text),
		},
	}
	if m := l.product.FindStringSubmatch(text); m != nil {
		meta.Version = m[1]
	}
	return meta
}

// version returns the version after an upgrade arrow when there is one,
// otherwise the first version following the library name. A match whose gap
// crosses another product name belongs to that product and is skipped.
func (c componentMatcher) version(text string) string {
	for _, m := range c.re.FindAllStringSubmatch(text, -1) {
		if c.crosses(m[1]) {
			continue
		}
		if len(m) > 3 && m[3] != "" {
			return m[3]
		}
		return m[2]
	}
	return NoComponent
}

func (c componentMatcher) crosses(gap string) bool {
	gap = strings.ToLower(gap)
	for _, name := range c.others {
		if strings.Contains(gap, name) {
			return true
		}
	}
	return false
}
