package service

import "math"

// FailingGrade 不及格字母，字母表与 GPA 绩点表共用
const FailingGrade = "E"

// percentTolerance 与下限比较时容忍的浮点误差，只吸收运算噪声（如 0.83*100 得到 82.99999999999999）
const percentTolerance = 1e-9

// letterThresholds 百分比下限 → 字母成绩，按下限降序
var letterThresholds = []struct {
	min    float64
	letter string
}{
	{93, "A"},
	{90, "A-"},
	{87, "B+"},
	{83, "B"},
	{80, "B-"},
	{77, "C+"},
	{73, "C"},
	{70, "C-"},
	{67, "D+"},
	{63, "D"},
	{60, "D-"},
}

// gradePoints 字母成绩 → 绩点
var gradePoints = map[string]float64{
	"A":          4.0,
	"A-":         3.7,
	"B+":         3.3,
	"B":          3.0,
	"B-":         2.7,
	"C+":         2.3,
	"C":          2.0,
	"C-":         1.7,
	"D+":         1.3,
	"D":          1.0,
	"D-":         0.7,
	FailingGrade: 0.0,
}

// PercentToLetter 将 0~100 百分比映射为字母成绩，区间下限包含
func PercentToLetter(percent float64) string {
	for _, t := range letterThresholds {
		if percent >= t.min-percentTolerance {
			return t.letter
		}
	}
	return FailingGrade
}

// GradePoints 查询字母成绩对应的绩点，未知字母返回 ok=false
func GradePoints(letter string) (points float64, ok bool) {
	points, ok = gradePoints[letter]
	return points, ok
}

// roundGPA 保留两位小数
func roundGPA(v float64) float64 {
	return math.Round(v*100) / 100
}
