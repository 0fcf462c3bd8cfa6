package diag

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

var (
	grantedListPattern = regexp.MustCompile(`grantedPermissions=\[([^\]]*)\]`)
	grantedLinePattern = regexp.MustCompile(`(?m)^\s*([\w.\-]+): granted=(true|false)`)
)

// parseGrantedPermissions extracts permission state from a dumpsys
// package dump. Older platforms print one bracketed grantedPermissions
// list; newer ones print install and runtime sections with per-line
// granted flags. Runtime sections are dumped after install sections and
// overwrite their state.
func parseGrantedPermissions(raw string) []Permission {
	state := make(map[string]bool)

	if m := grantedListPattern.FindStringSubmatch(raw); m != nil {
		for _, name := range splitPermissionList(m[1]) {
			state[name] = true
		}
	}
	if len(state) == 0 {
		for _, m := range grantedLinePattern.FindAllStringSubmatch(raw, -1) {
			state[m[1]] = m[2] == "true"
		}
	}
	if len(state) == 0 {
		return nil
	}

	perms := make([]Permission, 0, len(state))
	for name, granted := range state {
		perms = append(perms, Permission{Name: name, Granted: granted})
	}
	sortPermissions(perms)
	return perms
}

// splitPermissionList splits a bracketed list body on commas or
// whitespace; dumps format it either way.
func splitPermissionList(body string) []string {
	return strings.FieldsFunc(body, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

func sortPermissions(perms []Permission) {
	sort.Slice(perms, func(i, j int) bool { return perms[i].Name < perms[j].Name })
}
