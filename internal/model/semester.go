package model

import (
	"fmt"
	"strings"
)

// Season 学期季节
type Season string

const (
	SeasonSpring Season = "Spring"
	SeasonSummer Season = "Summer"
	SeasonFall   Season = "Fall"
)

// ParseSeason 大小写不敏感地解析季节名称
func ParseSeason(s string) (Season, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "spring":
		return SeasonSpring, nil
	case "summer":
		return SeasonSummer, nil
	case "fall":
		return SeasonFall, nil
	}
	return "", fmt.Errorf("无效的学期季节 %q", s)
}

// Semester 学期值对象：(季节, 年份)
type Semester struct {
	Season Season
	Year   int
}

func (s Semester) String() string {
	return fmt.Sprintf("%s %d", s.Season, s.Year)
}
