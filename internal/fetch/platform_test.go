package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		url      string
		expected Platform
	}{
		{"https://job-boards.greenhouse.io/doordashusa/jobs/7063751", PlatformGreenhouse},
		{"https://boards.greenhouse.io/company/jobs/123", PlatformGreenhouse},
		{"https://greenhouse.io/jobs/456", PlatformGreenhouse},
		{"https://jobs.lever.co/company/job-id", PlatformLever},
		{"https://company.wd5.myworkdayjobs.com/en-US/External", PlatformWorkday},
		{"https://workday.com/jobs", PlatformWorkday},
		{"https://jobs.ashbyhq.com/acme/123", PlatformAshby},
		{"https://example.com/jobs", PlatformUnknown},
		{"https://notgreenhouse.io.example.com/jobs", PlatformUnknown},
		{"https://linkedin.com/jobs/123", PlatformUnknown},
		{"::not a url", PlatformUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectPlatform(tt.url))
		})
	}
}

func TestContentSelectors(t *testing.T) {
	selectors := PlatformGreenhouse.ContentSelectors()
	assert.Equal(t, ".job__description.body", selectors[0])
	assert.Contains(t, selectors, "main")

	// Unknown platforms use the generic list.
	assert.Equal(t, JobPostingSelectors(), PlatformUnknown.ContentSelectors())
}

func TestContentSelectors_DoesNotAliasTable(t *testing.T) {
	selectors := PlatformLever.ContentSelectors()
	selectors[0] = "mutated"
	assert.NotEqual(t, "mutated", PlatformLever.ContentSelectors()[0])
}

func TestNoiseSelectors(t *testing.T) {
	greenhouse := PlatformGreenhouse.NoiseSelectors()
	assert.Contains(t, greenhouse, "form")
	assert.Contains(t, greenhouse, ".voluntary-self-id")

	unknown := PlatformUnknown.NoiseSelectors()
	assert.Contains(t, unknown, "#application-form")
	assert.NotContains(t, unknown, ".voluntary-self-id")
}
