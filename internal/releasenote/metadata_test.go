package releasenote

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractMetadata(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name string
		text string
		want Metadata
	}{
		{
			name: "all present",
			text: "TrusGuard v3.1.3.11 릴리즈 노트\nOpenSSL 1.1.1w\nOpenSSH 8.0p1",
			want: Metadata{Version: "3.1.3.11", Security: SecurityComponents{TLS: "1.1.1w", SSH: "8.0p1"}},
		},
		{
			name: "upgrade arrows",
			text: "trusguard 2.5\nOpenSSL 1.1.1k -> 3.0.8\nOpenSSH 7.4p1 → 9.3p2",
			want: Metadata{Version: "2.5", Security: SecurityComponents{TLS: "3.0.8", SSH: "9.3p2"}},
		},
		{
			name: "version on a later line",
			text: "TrusGuard 3.0.1\n보안 컴포넌트: OpenSSL\n  버전 정보\n  3.0.13 적용",
			want: Metadata{Version: "3.0.1", Security: SecurityComponents{TLS: "3.0.13", SSH: NoComponent}},
		},
		{
			name: "nothing matches",
			text: "release note without versions",
			want: Metadata{Version: UnknownVersion, Security: SecurityComponents{TLS: NoComponent, SSH: NoComponent}},
		},
		{
			name: "lines run together",
			text: "TrusGuard v3.1.0OpenSSL 3.0.13OpenSSH 9.3p2",
			want: Metadata{Version: "3.1.0", Security: SecurityComponents{TLS: "3.0.13", SSH: "9.3p2"}},
		},
		{
			name: "library mentioned without its own version",
			text: "OpenSSL 업데이트 (TrusGuard 3.1.3.11 적용)",
			want: Metadata{Version: "3.1.3.11", Security: SecurityComponents{TLS: NoComponent, SSH: NoComponent}},
		},
		{
			name: "later mention carries the version",
			text: "OpenSSL 업데이트 (TrusGuard 3.1.3.11 적용)\nOpenSSL 3.0.13\nOpenSSH 이슈 수정 OpenSSL 3.0.14",
			want: Metadata{Version: "3.1.3.11", Security: SecurityComponents{TLS: "3.0.13", SSH: NoComponent}},
		},
		{
			name: "ssh without patch suffix",
			text: "OpenSSH 8.0 only",
			want: Metadata{Version: UnknownVersion, Security: SecurityComponents{TLS: NoComponent, SSH: NoComponent}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.ExtractMetadata(tt.text))
		})
	}
}

func TestParse_TLSSentinel(t *testing.T) {
	e := newTestEngine(t)
	rec, err := e.Parse(docOf(textPage(1, "TrusGuard v3.1.0", "OpenSSH 9.3p2")))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	assert.Equal(t, NoComponent, rec.Security.TLS)
	assert.Equal(t, "9.3p2", rec.Security.SSH)
	assert.Equal(t, "3.1.0", rec.Version)
}
