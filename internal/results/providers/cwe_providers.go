// internal/results/providers/cwe_providers.go
package providers

import (
	"fmt"
)

// CWEEntry holds details about a specific CWE.
type CWEEntry struct {
	ID          string
	Name        string
	Description string
}

// URL links to the MITRE page of the entry, or returns "" for IDs that are
// not of the form CWE-<n>.
func (e CWEEntry) URL() string {
	var n int
	if _, err := fmt.Sscanf(e.ID, "CWE-%d", &n); err != nil {
		return ""
	}
	return fmt.Sprintf("https://cwe.mitre.org/data/definitions/%d.html", n)
}

// CWEProvider resolves CWE details and the weakness each rule detects.
type CWEProvider interface {
	GetCWE(id string) (*CWEEntry, error)
	ForRule(ruleID string) (string, bool)
}

// InMemoryCWEProvider serves a fixed catalogue covering the built-in rules.
type InMemoryCWEProvider struct {
	data  map[string]CWEEntry
	rules map[string]string
}

// NewInMemoryCWEProvider creates a provider preloaded with the weaknesses the
// built-in rules report.
func NewInMemoryCWEProvider() *InMemoryCWEProvider {
	data := map[string]CWEEntry{
		"CWE-89":   {ID: "CWE-89", Name: "Improper Neutralization of Special Elements used in an SQL Command ('SQL Injection')", Description: "The product constructs all or part of an SQL command using externally-influenced input, but does not neutralize special elements that could modify the intended command."},
		"CWE-306":  {ID: "CWE-306", Name: "Missing Authentication for Critical Function", Description: "The product does not perform any authentication for functionality that requires a provable user identity or consumes a significant amount of resources."},
		"CWE-532":  {ID: "CWE-532", Name: "Insertion of Sensitive Information into Log File", Description: "The product writes information to a log that may be sensitive and visible to people who should not see it."},
		"CWE-538":  {ID: "CWE-538", Name: "Insertion of Sensitive Information into Externally-Accessible File or Directory", Description: "The product places sensitive information into files or directories that are accessible to actors who are allowed to have access to the files, but not to the sensitive information."},
		"CWE-546":  {ID: "CWE-546", Name: "Suspicious Comment", Description: "The code contains comments that suggest the presence of bugs, incomplete functionality, or weaknesses."},
		"CWE-601":  {ID: "CWE-601", Name: "URL Redirection to Untrusted Site ('Open Redirect')", Description: "The web application accepts a user-controlled input that specifies a link to an external site, and uses that link in a redirect."},
		"CWE-662":  {ID: "CWE-662", Name: "Improper Synchronization", Description: "The product utilizes a shared resource in a concurrent manner but does not attempt to synchronize access, so related updates can be applied partially."},
		"CWE-770":  {ID: "CWE-770", Name: "Allocation of Resources Without Limits or Throttling", Description: "The product allocates a reusable resource on behalf of an actor without imposing any restrictions on how many can be requested."},
		"CWE-798":  {ID: "CWE-798", Name: "Use of Hard-coded Credentials", Description: "The product contains hard-coded credentials, such as a password or cryptographic key."},
		"CWE-918":  {ID: "CWE-918", Name: "Server-Side Request Forgery (SSRF)", Description: "The web server receives a URL from an upstream component and retrieves its contents without sufficiently ensuring that the request is sent to the expected destination."},
		"CWE-1050": {ID: "CWE-1050", Name: "Excessive Platform Resource Consumption within a Loop", Description: "The product has a loop body or loop condition that contains a control element that directly or indirectly consumes platform resources."},
		"CWE-1357": {ID: "CWE-1357", Name: "Reliance on Insufficiently Trustworthy Component", Description: "The product is built from a component that is not sufficiently trusted, such as a package that is not declared or does not exist."},
	}
	rules := map[string]string{
		"secrets":               "CWE-798",
		"ssrf":                  "CWE-918",
		"open-redirect":         "CWE-601",
		"sql-injection":         "CWE-89",
		"unauthenticated-route": "CWE-306",
		"fetch-in-loop":         "CWE-1050",
		"missing-transaction":   "CWE-662",
		"hallucinated-import":   "CWE-1357",
		"console-log":           "CWE-532",
		"placeholder-code":      "CWE-546",
		"env-not-ignored":       "CWE-538",
		"missing-rate-limit":    "CWE-770",
	}
	return &InMemoryCWEProvider{data: data, rules: rules}
}

// GetCWE retrieves CWE details by ID. Unknown IDs yield a placeholder entry
// rather than an error so enrichment never fails a scan.
func (p *InMemoryCWEProvider) GetCWE(id string) (*CWEEntry, error) {
	entry, exists := p.data[id]
	if !exists {
		return &CWEEntry{ID: id, Name: fmt.Sprintf("%s (Details Not Found)", id), Description: "Details for this CWE ID are not available in the local catalogue."}, nil
	}
	return &entry, nil
}

// ForRule returns the CWE ID a rule reports.
func (p *InMemoryCWEProvider) ForRule(ruleID string) (string, bool) {
	id, ok := p.rules[ruleID]
	return id, ok
}
