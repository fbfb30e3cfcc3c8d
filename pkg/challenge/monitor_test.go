package challenge

import "testing"

func TestInspectClassification(t *testing.T) {
	tests := []struct {
		name string
		html string
		want Classification
	}{
		{
			name: "clean page",
			html: `<html><body><article data-testid="tweet">hello</article></body></html>`,
			want: ClassificationNone,
		},
		{
			name: "recaptcha iframe",
			html: `<html><body><iframe title="recaptcha challenge"></iframe></body></html>`,
			want: ClassificationBotChallenge,
		},
		{
			name: "captcha div class",
			html: `<html><body><div class="g-captcha-container"></div></body></html>`,
			want: ClassificationBotChallenge,
		},
		{
			name: "human verification prompt",
			html: `<html><body><p>Please verify you are human to continue.</p></body></html>`,
			want: ClassificationBotChallenge,
		},
		{
			name: "rate limit phrasing",
			html: `<html><body><span>Rate limit exceeded. Try again in a bit.</span></body></html>`,
			want: ClassificationRateLimited,
		},
		{
			name: "too many requests",
			html: `<html><body><span>Too many requests from your network.</span></body></html>`,
			want: ClassificationRateLimited,
		},
		{
			name: "bot challenge wins over rate limit",
			html: `<html><body><div id="captcha-box"></div><span>please wait</span></body></html>`,
			want: ClassificationBotChallenge,
		},
	}

	monitor := NewMonitor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := monitor.Inspect(tt.html); got != tt.want {
				t.Errorf("Inspect(): expected %s, got %s", tt.want, got)
			}
		})
	}
}
