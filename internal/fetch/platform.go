package fetch

import (
	"net/url"
	"strings"
)

// Platform is a known job board.
type Platform string

const (
	PlatformGreenhouse Platform = "greenhouse"
	PlatformLever      Platform = "lever"
	PlatformWorkday    Platform = "workday"
	PlatformAshby      Platform = "ashby"
	PlatformUnknown    Platform = "unknown"
)

type platformInfo struct {
	hosts   []string
	content []string
	noise   []string
}

var platforms = map[Platform]platformInfo{
	PlatformGreenhouse: {
		hosts: []string{"greenhouse.io"},
		content: []string{
			".job__description.body",
			".job__description",
			".job-description__content",
			"#content",
			".job-post-container",
		},
		noise: []string{
			".application--wrapper",
			".voluntary-self-id",
			"#usa_self_id_section",
			".post-apply",
		},
	},
	PlatformLever: {
		hosts: []string{"lever.co"},
		content: []string{
			".posting-page",
			".section-wrapper.page-full-width",
			".posting-description",
			".content",
		},
		noise: []string{
			".apply-section",
			".lever-application-form",
			".posting-apply",
		},
	},
	PlatformWorkday: {
		hosts: []string{"workday.com", "myworkdayjobs.com"},
		content: []string{
			"[data-automation-id='jobDescription']",
			".job-description",
		},
		noise: []string{
			"[data-automation-id='applyButton']",
			".application-section",
		},
	},
	PlatformAshby: {
		hosts: []string{"ashbyhq.com"},
		content: []string{
			"[class*='descriptionText']",
			"main",
		},
		noise: []string{
			"[class*='applicationForm']",
		},
	},
}

// commonNoise applies to every job page.
var commonNoise = []string{
	"form",
	"#application-form",
	".application-form",
	".apply-button-container",
	".eeo-statement",
	".eeo-section",
	".legal-disclosure",
	".social-share",
	".share-buttons",
	".cookie-consent",
	".gdpr-notice",
}

// DetectPlatform identifies the job board from a URL's host.
func DetectPlatform(rawURL string) Platform {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return PlatformUnknown
	}
	host := strings.ToLower(parsed.Hostname())
	for p, info := range platforms {
		for _, h := range info.hosts {
			if host == h || strings.HasSuffix(host, "."+h) {
				return p
			}
		}
	}
	return PlatformUnknown
}

// ContentSelectors returns the selectors to try, most specific first.
// Generic job page selectors always follow the platform's own.
func (p Platform) ContentSelectors() []string {
	info, ok := platforms[p]
	if !ok {
		return JobPostingSelectors()
	}
	return append(append([]string{}, info.content...), JobPostingSelectors()...)
}

// NoiseSelectors returns elements stripped before text extraction.
func (p Platform) NoiseSelectors() []string {
	noise := append([]string{}, commonNoise...)
	if info, ok := platforms[p]; ok {
		noise = append(noise, info.noise...)
	}
	return noise
}
