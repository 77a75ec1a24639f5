package constants

import "time"

var CacheTTL = struct {
	Profile        time.Duration
	Representative time.Duration
}{
	Profile:        6 * time.Hour,  // derived engagement profile
	Representative: 24 * time.Hour, // postcode -> representative
}

var CacheKeys = struct {
	ProfilePrefix        string
	RepresentativePrefix string
	RateLimitPrefix      string
}{
	ProfilePrefix:        "dmmymp:profile:",
	RepresentativePrefix: "dmmymp:rep:",
	RateLimitPrefix:      "dmmymp:ratelimit:",
}

var ProfileDerivation = struct {
	Timeout time.Duration
}{
	Timeout: 2 * time.Minute,
}

var RedisConfig = struct {
	ReadyTimeout time.Duration
}{
	ReadyTimeout: 5 * time.Second,
}

var ActivityFeed = struct {
	PageSize int
	MaxPages int
}{
	PageSize: 500,
	MaxPages: 100,
}

var CircuitBreakerConfig = struct {
	FailureThreshold int
	ResetTimeout     time.Duration
	RateLimitTimeout time.Duration
}{
	FailureThreshold: 3,
	ResetTimeout:     30 * time.Second,
	RateLimitTimeout: 5 * time.Minute,
}

var APIConfig = struct {
	TWFYPublicURL    string
	PostcodesTimeout time.Duration
	RecaptchaURL     string
	RecaptchaTimeout time.Duration
	UserAgent        string
}{
	TWFYPublicURL:    "https://www.theyworkforyou.com",
	PostcodesTimeout: 5 * time.Second,
	RecaptchaURL:     "https://www.google.com/recaptcha/api/siteverify",
	RecaptchaTimeout: 5 * time.Second,
	UserAgent:        "dmmymp-go/1.0",
}

var AIConfig = struct {
	TidyMaxTokens       int64
	TidyTemperature     float64
	SuggestMaxTokens    int64
	RequestTimeout      time.Duration
	MaxAttempts         int
	RateLimitBackoff    time.Duration
	MinTidiedLength     int
	TidySystemPrompt    string
	SuggestSystemPrompt string
}{
	TidyMaxTokens:       400,
	TidyTemperature:     0.7,
	SuggestMaxTokens:    300,
	RequestTimeout:      15 * time.Second,
	MaxAttempts:         3,
	RateLimitBackoff:    time.Second,
	MinTidiedLength:     10,
	TidySystemPrompt:    "You are a professional editor.",
	SuggestSystemPrompt: "You are a UK policy researcher who writes concise, factual briefings.",
}

var LetterLimits = struct {
	SummaryLength       int
	TopIssues           int
	TopPostcodes        int
	RecentLetters       int
	OtherIssueLabel     string
	IssueLabelSeparator string
}{
	SummaryLength:       100,
	TopIssues:           5,
	TopPostcodes:        10,
	RecentLetters:       50,
	OtherIssueLabel:     "Other - (Specify your own issue)",
	IssueLabelSeparator: " - ",
}

// Financial holds the register-of-interests comparison baseline.
var Financial = struct {
	AverageTotalSupportPerMP float64
}{
	AverageTotalSupportPerMP: 30000,
}

var WarmupConfig = struct {
	MaxConcurrency int
	PerProfile     time.Duration
}{
	MaxConcurrency: 4,
	PerProfile:     2 * time.Minute,
}
