package domain

// Column names used by the admissions templates.
const (
	ColSchool          = "学校名称"
	ColProvince        = "省份"
	ColMajor           = "招生专业"
	ColMajorDirection  = "专业方向（选填）"
	ColMajorRemark     = "专业备注"
	ColMajorRemarkOpt  = "专业备注（选填）"
	ColLevel           = "一级层次"
	ColCategory        = "招生科类"
	ColBatch           = "招生批次"
	ColRecruitTypeOpt  = "招生类型（选填）"
	ColMaxScore        = "最高分"
	ColMinScore        = "最低分"
	ColAvgScore        = "平均分"
	ColMinRankOpt      = "最低分位次（选填）"
	ColRecruitCountOpt = "招生人数（选填）"
	ColAdmitCountOpt   = "录取人数（选填）"
	ColSource          = "数据来源"
	ColGroupCode       = "专业组代码"
	ColFirstSubject    = "首选科目"
	ColRequirement     = "选科要求"
	ColSecondSubject   = "次选科目"
	ColMajorCode       = "专业代码"
	ColRecruitCode     = "招生代码"

	// art and sports template
	ColArtMajor      = "专业"
	ColMajorLevel    = "专业层次"
	ColMajorKind     = "专业类别"
	ColSchoolExam    = "是否校考"
	ColRecruitKind   = "招生类别"
	ColUnifiedScore  = "校统考分"
	ColCultureScore  = "校文化分"
)

// Derived columns appended by the remarks pass.
const (
	ColSchoolResult      = "学校匹配结果"
	ColMajorResult       = "招生专业匹配结果"
	ColRemarkResult      = "备注检查结果"
	ColRemarkFixed       = "修改后备注"
	ColScoreResult       = "分数检查结果"
	ColRequirementLabel  = "选科要求说明"
	ColRequirementSecond = "次选"
)

// Reference workbook columns.
const (
	RefSchoolColumn = "学校名称"
	RefMajorColumn  = "招生专业"
)

// TextColumns hold code-like values that must keep leading zeros on output.
var TextColumns = []string{ColGroupCode, ColMajorCode, ColRecruitCode}
