package authz

import "golang.org/x/text/language"

// Localized permission descriptions for rendering. Strictly display
// metadata: the resolver never consults these.

var supportedLocales = []language.Tag{
	language.English,
	language.Indonesian,
}

var descriptionMatcher = language.NewMatcher(supportedLocales)

var descriptions = map[language.Tag]map[string]string{
	language.English: {
		PermViewRegulations:      "View the regulation library",
		PermManageRegulations:    "Maintain regulation library entries",
		PermViewProjects:         "View compliance projects",
		PermManageProjects:       "Create and edit compliance projects",
		PermViewTasks:            "View compliance tasks",
		PermCreateTasks:          "Create compliance tasks",
		PermManageTasks:          "Assign and transition compliance tasks",
		PermViewEvidence:         "View evidence records",
		PermUploadEvidence:       "Attach evidence to tasks",
		PermApproveControls:      "Approve control implementations",
		PermManageUsers:          "Manage users and role assignments",
		PermManageSystemSettings: "Change system-wide settings",
	},
	language.Indonesian: {
		PermViewRegulations:      "Melihat pustaka regulasi",
		PermManageRegulations:    "Mengelola entri pustaka regulasi",
		PermViewProjects:         "Melihat proyek kepatuhan",
		PermManageProjects:       "Membuat dan mengubah proyek kepatuhan",
		PermViewTasks:            "Melihat tugas kepatuhan",
		PermCreateTasks:          "Membuat tugas kepatuhan",
		PermManageTasks:          "Menugaskan dan memindahkan tugas kepatuhan",
		PermViewEvidence:         "Melihat catatan bukti",
		PermUploadEvidence:       "Melampirkan bukti pada tugas",
		PermApproveControls:      "Menyetujui implementasi kontrol",
		PermManageUsers:          "Mengelola pengguna dan penetapan peran",
		PermManageSystemSettings: "Mengubah pengaturan sistem",
	},
}

// DescribePermission returns the permission description for the closest
// supported locale, falling back to the code itself when nothing matches.
func DescribePermission(locale, code string) string {
	_, index := language.MatchStrings(descriptionMatcher, locale)
	if byCode, ok := descriptions[supportedLocales[index]]; ok {
		if desc, ok := byCode[code]; ok {
			return desc
		}
	}
	if desc, ok := descriptions[language.English][code]; ok {
		return desc
	}
	return code
}
