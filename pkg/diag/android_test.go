package diag

import "testing"

func assertPermissions(t *testing.T, got, want []Permission) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("Expected %d permissions, got %+v", len(want), got)
	}
	for i, p := range want {
		if got[i] != p {
			t.Errorf("Permission %d: expected %+v, got %+v", i, p, got[i])
		}
	}
}

func TestParseGrantedPermissions_BracketedList(t *testing.T) {
	raw := `  Package [com.legacy.app] (b2c3):
    grantedPermissions=[android.permission.INTERNET, android.permission.CAMERA]
`
	assertPermissions(t, parseGrantedPermissions(raw), []Permission{
		{Name: "android.permission.CAMERA", Granted: true},
		{Name: "android.permission.INTERNET", Granted: true},
	})
}

func TestParseGrantedPermissions_MultilineBracketedList(t *testing.T) {
	raw := "grantedPermissions=[\n      android.permission.INTERNET\n      android.permission.WAKE_LOCK\n    ]"

	assertPermissions(t, parseGrantedPermissions(raw), []Permission{
		{Name: "android.permission.INTERNET", Granted: true},
		{Name: "android.permission.WAKE_LOCK", Granted: true},
	})
}

func TestParseGrantedPermissions_PerLineFallback(t *testing.T) {
	raw := `    install permissions:
      android.permission.POST_NOTIFICATIONS: granted=true
      android.permission.INTERNET: granted=true
    User 0: ceDataInode=0 installed=true
      runtime permissions:
        android.permission.CAMERA: granted=true, flags=[ USER_SET ]
        android.permission.POST_NOTIFICATIONS: granted=false, flags=[ USER_FIXED ]
`
	// The runtime section is dumped last and wins for POST_NOTIFICATIONS.
	assertPermissions(t, parseGrantedPermissions(raw), []Permission{
		{Name: "android.permission.CAMERA", Granted: true},
		{Name: "android.permission.INTERNET", Granted: true},
		{Name: "android.permission.POST_NOTIFICATIONS", Granted: false},
	})
}

func TestParseGrantedPermissions_NoPermissionData(t *testing.T) {
	if perms := parseGrantedPermissions("Packages:\n  nothing here\n"); perms != nil {
		t.Errorf("Expected nil, got %+v", perms)
	}
}
