package s3

import "testing"

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "tenant/blob.enc", want: "tenant/blob.enc"},
		{name: "simple prefix", prefix: "vault", key: "tenant/blob.enc", want: "vault/tenant/blob.enc"},
		{name: "prefix trailing slash", prefix: "vault/", key: "tenant/blob.enc", want: "vault/tenant/blob.enc"},
		{name: "prefix and key slashes", prefix: "/vault/", key: "/tenant/blob.enc", want: "vault/tenant/blob.enc"},
		{name: "nested prefix", prefix: "vault/sub", key: "tenant/blob.enc", want: "vault/sub/tenant/blob.enc"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}
