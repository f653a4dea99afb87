package rbac

// legacyMenuNames bridges menus created before menu_code existed: such rows
// are only identifiable by their Korean display name.
var legacyMenuNames = map[MenuCode]string{
	MenuDashboard:            "대시보드",
	MenuUserManagement:       "회원 관리",
	MenuRoleManagement:       "역할 관리",
	MenuMenuManagement:       "메뉴 관리",
	MenuPermissionManagement: "권한 관리",
	MenuLogManagement:        "로그 관리",
	MenuMyProfile:            "내 정보",
	MenuSystemManagement:     "시스템 관리",
}

// LegacyMenuName returns the display name a code used to be stored under.
// Unknown codes map to themselves with ok=false.
func LegacyMenuName(code MenuCode) (name string, ok bool) {
	if name, ok := legacyMenuNames[code]; ok {
		return name, true
	}
	return string(code), false
}
