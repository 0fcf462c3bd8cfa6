package locator

import (
	"fmt"
	"strings"
)

// W3C locator strategy names understood by the automation driver.
const (
	StrategyAccessibilityID = "accessibility id"
	StrategyUIAutomator     = "-android uiautomator"
	StrategyPredicate       = "-ios predicate string"
	StrategyClassChain      = "-ios class chain"
	StrategyXPath           = "xpath"
)

// Canonical string prefixes. XPath has no prefix: any locator starting
// with "/" or "(" is an XPath expression.
const (
	prefixAccessibilityID = "~"
	prefixUIAutomator     = "android="
	prefixPredicate       = "-ios predicate string:"
	prefixClassChain      = "-ios class chain:"
)

// Canonical converts a {using, value} strategy pair into canonical
// string form. Conversion happens once, when an element is built, so
// resolution never re-interprets strategies.
func Canonical(using, value string) (string, error) {
	switch using {
	case StrategyAccessibilityID:
		return prefixAccessibilityID + value, nil
	case StrategyUIAutomator:
		return prefixUIAutomator + value, nil
	case StrategyPredicate:
		return prefixPredicate + value, nil
	case StrategyClassChain:
		return prefixClassChain + value, nil
	case StrategyXPath:
		if !strings.HasPrefix(value, "/") && !strings.HasPrefix(value, "(") {
			return "", fmt.Errorf("xpath locator must start with / or (: %q", value)
		}
		return value, nil
	default:
		return "", fmt.Errorf("unknown locator strategy: %q", using)
	}
}

// Parse splits a canonical locator back into the {using, value} pair
// consumed by the driver.
func Parse(canonical string) (using, value string, err error) {
	switch {
	case strings.HasPrefix(canonical, prefixAccessibilityID):
		return StrategyAccessibilityID, canonical[len(prefixAccessibilityID):], nil
	case strings.HasPrefix(canonical, prefixUIAutomator):
		return StrategyUIAutomator, canonical[len(prefixUIAutomator):], nil
	case strings.HasPrefix(canonical, prefixPredicate):
		return StrategyPredicate, canonical[len(prefixPredicate):], nil
	case strings.HasPrefix(canonical, prefixClassChain):
		return StrategyClassChain, canonical[len(prefixClassChain):], nil
	case strings.HasPrefix(canonical, "/"), strings.HasPrefix(canonical, "("):
		return StrategyXPath, canonical, nil
	default:
		return "", "", fmt.Errorf("unrecognized locator: %q", canonical)
	}
}
