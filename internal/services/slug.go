package services

import "strings"

// MaxSlugLen caps derived slugs.
const MaxSlugLen = 80

// DeriveSlug builds a URL slug from a title: lowercase ASCII letters and
// digits, with every other run of characters collapsed to a single '-'. The
// result never starts or ends with '-' and is at most MaxSlugLen bytes. A
// title with no letters or digits yields "".
//
//	DeriveSlug("Hello, World! 123") == "hello-world-123"
func DeriveSlug(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	pendingDash := false
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	s := b.String()
	if len(s) > MaxSlugLen {
		s = strings.TrimRight(s[:MaxSlugLen], "-")
	}
	return s
}
