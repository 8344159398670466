// Package category holds the 13 fixed vulnerability categories and their
// byte index, prepended as the first character of every sealed plaintext.
package category

// Names lists the 13 fixed category tags in their canonical index order.
// The index IS the category byte — never reorder this slice.
var Names = []string{
	"fq",
	"user_auditing",
	"account_policy",
	"local_policy",
	"defensive_countermeasure",
	"uncategorized",
	"service_auditing",
	"os_update",
	"app_update",
	"prohibited_file",
	"unwanted_software",
	"malware",
	"appsec",
}

// Index returns the byte index of name, or -1 if it is not one of the 13
// fixed categories.
func Index(name string) int {
	for i, n := range Names {
		if n == name {
			return i
		}
	}
	return -1
}

// Name returns the category name for a given byte index, or "" if idx is
// out of range.
func Name(idx byte) string {
	if int(idx) >= len(Names) {
		return ""
	}
	return Names[idx]
}
