package normalize

// Typo is one entry of the substitution dictionary.
type Typo struct {
	From string
	To   string
}

// DefaultTypos lists known OCR and data-entry mistakes found in admission
// remarks. Entries are applied in slice order and later entries see the
// output of earlier ones.
var DefaultTypos = []Typo{
	{"教助", "救助"},
	{"指辉", "指挥"},
	{"料学", "科学"},
	{"话言", "语言"},
	{"5十3", "5+3"},
	{"5十3一体化", "5+3一体化"},
	{"“5十3”一体化", "“5+3”一体化"},
	{"5+31体化", "5+3一体化"},
	{"5+3体化", "5+3一体化"},
	{"色言", "色盲"},
	{"NIT", "NIIT"},
	{"色育", "色盲"},
	{"人围", "入围"},
	{"项月", "项目"},
	{"币范类", "师范类"},
	{"投课", "授课"},
	{"就薄", "就读"},
	{"电请", "申请"},
	{"中国面", "中国画"},
	{"火数民族", "少数民族"},
	{"色自", "色盲"},
	{"色盲色弱申报", "色盲色弱慎报"},
	{"数学与应用数笑", "数学与应用数学"},
	{"法学十", "法学+"},
	{"浣海校区", "滨海校区"},
	{"中溴", "中澳"},
}

// DefaultWhitelist holds remarks that are legitimate as written and must
// pass through untouched.
var DefaultWhitelist = []string{
	"宏福校区", "沙河校区", "中外合作办学", "珠海校区", "江北校区", "津南校区",
	"开封校区", "联合办学", "校企合作", "合作办学", "威海校区", "深圳校区",
	"苏州校区", "平果校区", "江南校区", "合川校区", "长安校区", "崇安校区",
	"南校区", "东校区", "都市园艺", "甘肃兰州",
}
