package classify

import "strings"

// keywordTable is the older substring table that predates the rule set.
// It disagrees with the rules on some posts; it is only consulted when the
// classifier has no answer and the caller opts in.
var keywordTable = []struct {
	keyword string
	label   string
}{
	{"domain", "Domains & DNS"},
	{"dns", "Domains & DNS"},
	{"mail", "Email"},
	{"hosting", "Web Hosting"},
	{"vps", "VPS"},
	{"server", "Dedicated Servers"},
	{"cloud", "Cloud Servers"},
	{"storage", "Object Storage"},
	{"backup", "Backup"},
	{"cdn", "CDN"},
	{"balancer", "Load Balancer"},
	{"ddos", "DDoS Protection"},
	{"invoice", "Billing"},
	{"bill", "Billing"},
	{"manager", "Account Manager"},
	{"api", "API & SDK"},
	{"support", "Support"},
}

// KeywordProduct returns the legacy keyword-table label for content, or "".
func KeywordProduct(content string) string {
	lower := strings.ToLower(content)
	for _, k := range keywordTable {
		if strings.Contains(lower, k.keyword) {
			return k.label
		}
	}
	return ""
}
