// Package classify maps a post to a product label.
//
// Manual overrides always win. Otherwise an ordered rule table is walked from
// the most specific product category to the least specific one, and the
// first matching rule decides. There is no scoring.
package classify

import (
	"regexp"
	"strings"
)

// General is the display label for posts no rule matched.
const General = "General"

// unknownLanguage is the backend's sentinel for undetected languages.
const unknownLanguage = "unknown"

// Rule is a case-insensitive pattern paired with the label it assigns.
type Rule struct {
	Label   string
	Pattern string

	re *regexp.Regexp
}

// defaultRules is ordered most specific first. Order is the tie-breaker.
var defaultRules = []Rule{
	{Label: "Domains & DNS", Pattern: `\b(domains?|dns|nameservers?|whois|registrar|tld|a record|cname|mx record)\b`},
	{Label: "Email", Pattern: `\b(e-?mail|mailbox(es)?|imap|smtp|pop3|webmail|inbox)\b`},
	{Label: "Web Hosting", Pattern: `\b(web ?hosting|shared hosting|hosting plan|cpanel|plesk|wordpress hosting)\b`},
	{Label: "VPS", Pattern: `\b(vps|virtual private server|vds)\b`},
	{Label: "Dedicated Servers", Pattern: `\b(dedicated servers?|bare ?metal|dedi)\b`},
	{Label: "Cloud Servers", Pattern: `\b(cloud servers?|cloud instances?|compute instances?|public cloud)\b`},
	{Label: "Managed Cloud", Pattern: `\b(managed cloud|managed kubernetes|kubernetes|k8s|private cloud)\b`},
	{Label: "Object Storage", Pattern: `\b(object storage|s3|buckets?|block storage|storage box)\b`},
	{Label: "Backup", Pattern: `\b(backups?|snapshots?|restore|disaster recovery)\b`},
	{Label: "CDN", Pattern: `\b(cdn|content delivery|edge cache)\b`},
	{Label: "Load Balancer", Pattern: `\b(load ?balanc(er|ers|ing)|lb)\b`},
	{Label: "DDoS Protection", Pattern: `\b(ddos|dos attack|anti-?ddos|mitigation)\b`},
	{Label: "Billing", Pattern: `\b(billing|invoices?|charged?|refunds?|payments?|pricing|prices?|subscription)\b`},
	{Label: "Account Manager", Pattern: `\b(account manager|sales rep|key account|my manager)\b`},
	{Label: "API & SDK", Pattern: `\b(api|sdk|terraform|cli|webhooks?|rest endpoint)\b`},
	{Label: "Support", Pattern: `\b(support|ticket|helpdesk|help desk|customer service|live chat)\b`},
}

// Rules returns a copy of the default rule table, in evaluation order.
func Rules() []Rule {
	rules := make([]Rule, len(defaultRules))
	copy(rules, defaultRules)
	return rules
}

// Classifier resolves product labels. Construct with New.
type Classifier struct {
	rules     []Rule
	overrides *Overrides
}

// New creates a classifier over the default rules. overrides may be nil.
func New(overrides *Overrides) *Classifier {
	return NewWithRules(overrides, defaultRules)
}

// NewWithRules creates a classifier with a custom ordered rule table.
// Rules whose pattern does not compile are skipped.
func NewWithRules(overrides *Overrides, rules []Rule) *Classifier {
	compiled := make([]Rule, 0, len(rules))
	for _, r := range rules {
		re, err := regexp.Compile(`(?i)` + r.Pattern)
		if err != nil {
			continue
		}
		r.re = re
		compiled = append(compiled, r)
	}
	return &Classifier{rules: compiled, overrides: overrides}
}

// Overrides returns the override layer, or nil.
func (c *Classifier) Overrides() *Overrides {
	return c.overrides
}

// Classify returns the product label for a post, or "" when nothing applies.
func (c *Classifier) Classify(postID int64, content, language string) string {
	if c.overrides != nil {
		if label, ok := c.overrides.Get(postID); ok {
			return label
		}
	}

	if label := c.Detect(content); label != "" {
		return label
	}

	lang := strings.TrimSpace(language)
	if lang != "" && !strings.EqualFold(lang, unknownLanguage) {
		return strings.ToUpper(lang)
	}
	return ""
}

// Label is Classify with the General fallback applied.
func (c *Classifier) Label(postID int64, content, language string) string {
	if label := c.Classify(postID, content, language); label != "" {
		return label
	}
	return General
}

// Detect runs only the rule table, ignoring overrides and language.
func (c *Classifier) Detect(content string) string {
	if content == "" {
		return ""
	}
	for _, r := range c.rules {
		if r.re.MatchString(content) {
			return r.Label
		}
	}
	return ""
}

// SetOverride records a manual label for postID. A blank label deletes
// the override.
func (c *Classifier) SetOverride(postID int64, label string) error {
	if c.overrides == nil {
		return ErrNoOverrides
	}
	return c.overrides.Set(postID, label)
}
