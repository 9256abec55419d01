// Package planconv compares an admissions-plan export against score sheets
// and converts it into the major-score and college-score import templates.
package planconv

import "admitcli/pkg/contracts/domain"

// Plan export columns.
const (
	PlanYear             = "年份"
	PlanProvince         = "省份"
	PlanSchool           = "学校"
	PlanCategory         = "科类"
	PlanBatch            = "批次"
	PlanMajor            = "专业"
	PlanLevel            = "层次"
	PlanGroupCode        = "专业组代码"
	PlanRecruitType      = "招生类型"
	PlanRemark           = "备注"
	PlanRecruitCount     = "招生人数"
	PlanTuition          = "学费"
	PlanDuration         = "学制"
	PlanMajorCode        = "专业代码"
	PlanRecruitCode      = "招生代码"
	PlanSource           = "数据来源"
	PlanGroupRequirement = "专业组选科要求"
	PlanMajorRequirement = "专业选科要求(新高考专业省份)"
)

// Major score template columns that only the conversion writes.
const (
	ColScoreBandLow  = "最低分数区间低"
	ColScoreBandHigh = "最低分数区间高"
	ColRankBandLow   = "最低分数区间位次低"
	ColRankBandHigh  = "最低分数区间位次高"

	levelVocational    = "专科(高职)"
	levelUndergraduate = "本科(普通)"

	// MajorYearLabel and MajorColumnWidth shape the major score template.
	MajorYearLabel   = "招生年份"
	MajorColumnWidth = 9.36
)

// MajorScoreColumns is the column order of the major score template.
var MajorScoreColumns = []string{
	domain.ColSchool, domain.ColProvince, domain.ColMajor, domain.ColMajorDirection,
	domain.ColMajorRemarkOpt, domain.ColLevel, domain.ColCategory, domain.ColBatch,
	domain.ColRecruitTypeOpt, domain.ColMaxScore, domain.ColMinScore, domain.ColAvgScore,
	domain.ColMinRankOpt, domain.ColRecruitCountOpt, domain.ColSource, domain.ColGroupCode,
	domain.ColFirstSubject, domain.ColRequirement, domain.ColSecondSubject,
	domain.ColMajorCode, domain.ColRecruitCode, ColScoreBandLow, ColScoreBandHigh,
	ColRankBandLow, ColRankBandHigh, domain.ColAdmitCountOpt,
}

// MajorScoreTextColumns keep the text number format.
var MajorScoreTextColumns = []string{domain.ColGroupCode, domain.ColMajorCode, domain.ColRecruitCode}

// Plan-vs-score key fields. The major comparison adds major and level.
var (
	MajorKeyFields   = []string{PlanYear, PlanProvince, PlanSchool, PlanCategory, PlanBatch, PlanMajor, PlanLevel, PlanGroupCode}
	CollegeKeyFields = []string{PlanYear, PlanProvince, PlanSchool, PlanCategory, PlanBatch, PlanGroupCode}
)

// scoreAliases resolves plan key fields against template-style headers.
var scoreAliases = map[string][]string{
	PlanSchool:   {domain.ColSchool},
	PlanCategory: {domain.ColCategory, "招生类别"},
	PlanBatch:    {domain.ColBatch},
	PlanMajor:    {domain.ColMajor},
	PlanLevel:    {domain.ColLevel},
}

// CollegeScoreNotice is row 1 of the college score template.
const CollegeScoreNotice = `备注：请删除示例后再填写；
1.省份：必须填写各省份简称，例如：北京、内蒙古，不能带有市、省、自治区、空格、特殊字符等
2.科类：浙江、上海限定"综合、艺术类、体育类"，内蒙古限定"文科、理科、蒙授文科、蒙授理科、艺术类、艺术文、艺术理、体育类、体育文、体育理、蒙授艺术、蒙授体育"，其他省份限定"文科、理科、艺术类、艺术文、艺术理、体育类、体育文、体育理"
3.批次：（以下为19年使用批次）
    北京、天津、辽宁、上海、山东、广东、海南限定本科提前批、本科批、专科提前批、专科批、国家专项计划本科批、地方专项计划本科批；
    河北、内蒙古、吉林、江苏、安徽、福建、江西、河南、湖北、广西、重庆、四川、贵州、云南、西藏、陕西、甘肃、宁夏、新疆限定本科提前批、本科一批、本科二批、专科提前批、专科批、国家专项计划本科批、地方专项计划本科批；
    黑龙江、湖南、青海限定本科提前批、本科一批、本科二批、本科三批、专科提前批、专科批、国家专项计划本科批、地方专项计划本科批；
    山西限定本科一批A段、本科一批B段、本科二批A段、本科二批B段、本科二批C段、专科批、国家专项计划本科批、地方专项计划本科批；
    浙江限定普通类提前批、平行录取一段、平行录取二段、平行录取三段
4.最高分、最低分、平均分：仅能填写数字（最多保留2位小数），且三者顺序不能改变，最低分为必填项，其中艺术类和体育类分数为文化课分数
5.最低分位次：仅能填写数字
6.录取人数：仅能填写数字
7.首选科目：新八省必填，只能填写（历史或物理）`

// MajorScoreNotice is row 1 of the major score template.
const MajorScoreNotice = `备注：请删除示例后再填写；
1.省份：必须填写各省份简称，例如：北京、内蒙古，不能带有市、省、自治区、空格、特殊字符等
2.科类：浙江、上海限定"综合、艺术类、体育类"，内蒙古限定"文科、理科、蒙授文科、蒙授理科、艺术类、艺术文、艺术理、体育类、体育文、体育理、蒙授艺术、蒙授体育"，其他省份限定"文科、理科、艺术类、艺术文、艺术理、体育类、体育文、体育理"
3.批次：（以下为19年使用批次）
河北、内蒙古、吉林、江苏、安徽、福建、江西、河南、湖北、广西、重庆、四川、贵州、云南、西藏、陕西、甘肃、宁夏、新疆限定本科提前批、本科一批、本科二批、专科提前批、专科批、国家专项计划本科批、地方专项计划本科批；
黑龙江、湖南、青海限定本科提前批、本科一批、本科二批、本科三批、专科提前批、专科批、国家专项计划本科批、地方专项计划本科批；
山西限定本科一批A段、本科一批B段、本科二批A段、本科二批B段、本科二批C段、专科批、国家专项计划本科批、地方专项计划本科批；
浙江限定普通类提前批、平行录取一段、平行录取二段、平行录取三段
4.招生人数：仅能填写数字
5.最高分、最低分、平均分：仅能填写数字，保留小数后两位，且三者顺序不能改变，最低分为必填项，其中艺术类和体育类分数为文化课分数
6.一级层次：限定"本科、专科（高职）"，该部分为招生专业对应的专业层次
7.最低分位次：仅能填写数字;
8.数据来源：必须限定——官方考试院、大红本数据、学校官网、销售、抓取、圣达信、优志愿、学业桥
9.选科要求：不限科目专业组;多门选考;单科、多科均需选考
10.选科科目必须是科目的简写（物、化、生、历、地、政、技）

11.2020北京、海南，17-19上海仅限制本科专业组代码必填
12.新八省首选科目必须选择（物理或历史）
13.分数区间仅限北京`
