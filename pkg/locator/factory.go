package locator

import (
	"fmt"
	"regexp"
	"strings"
)

// AccessibilityID builds an element located by accessibility id on
// either platform.
func AccessibilityID(id string) *Element {
	return New(Buckets{Universal: []string{prefixAccessibilityID + id}})
}

// XPath builds an element located by an XPath expression. XPath works
// on both backends so it goes into the universal bucket.
func XPath(expr string) *Element {
	return New(Buckets{Universal: []string{expr}})
}

// AndroidUIAutomator builds an element from a raw UiSelector expression.
func AndroidUIAutomator(expr string) *Element {
	return New(Buckets{Android: []string{prefixUIAutomator + expr}})
}

// IOSPredicate builds an element from a raw NSPredicate expression.
func IOSPredicate(expr string) *Element {
	return New(Buckets{IOS: []string{prefixPredicate + expr}})
}

// IOSClassChain builds an element from a raw class chain expression.
func IOSClassChain(expr string) *Element {
	return New(Buckets{IOS: []string{prefixClassChain + expr}})
}

// Text builds an element matching exact visible text on both platforms:
// a UiSelector text query on Android, a label predicate on iOS.
func Text(text string) *Element {
	return New(Buckets{
		Android: []string{fmt.Sprintf(`%snew UiSelector().text("%s")`, prefixUIAutomator, escapeQuoted(text))},
		IOS:     []string{fmt.Sprintf(`%slabel == "%s"`, prefixPredicate, escapeQuoted(text))},
	})
}

// TextContains builds an element matching a text substring on both
// platforms.
func TextContains(text string) *Element {
	return New(Buckets{
		Android: []string{fmt.Sprintf(`%snew UiSelector().textContains("%s")`, prefixUIAutomator, escapeQuoted(text))},
		IOS:     []string{fmt.Sprintf(`%slabel CONTAINS "%s"`, prefixPredicate, escapeQuoted(text))},
	})
}

// ResourceID builds an element located by Android resource id. With a
// known application package the id is fully qualified; otherwise it
// falls back to a suffix match over the unqualified id.
func ResourceID(id, appPackage string) *Element {
	if appPackage != "" {
		qualified := appPackage + ":id/" + id
		return New(Buckets{
			Android: []string{fmt.Sprintf(`%snew UiSelector().resourceId("%s")`, prefixUIAutomator, escapeQuoted(qualified))},
		})
	}
	pattern := ".*:id/" + regexp.QuoteMeta(id)
	return New(Buckets{
		Android: []string{fmt.Sprintf(`%snew UiSelector().resourceIdMatches("%s")`, prefixUIAutomator, escapeQuoted(pattern))},
	})
}

// escapeQuoted escapes text for a double-quoted string literal. Both
// the UiSelector dialect (Java) and NSPredicate use backslash escapes,
// so backslashes must be doubled before quotes are escaped.
func escapeQuoted(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}
