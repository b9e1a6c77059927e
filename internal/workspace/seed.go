package workspace

import (
	"time"

	"github.com/deojon/studio/internal/services"
	"github.com/deojon/studio/types"
)

// Seed is the initial content of the entity stores, newest first.
type Seed struct {
	Accounts  []services.Account
	Projects  []types.Project
	Processes []types.Process
	Tasks     []types.Task
	Posts     []types.BoardPost
}

func day(value string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		panic(err)
	}
	return t
}

func avatar(seed string) string {
	return "https://picsum.photos/seed/" + seed + "/100/100"
}

// DemoSeed returns the sample studio used by `studio server --seed`.
func DemoSeed() Seed {
	master := types.User{
		ID:            "master",
		Name:          "김진단 팀장",
		Email:         "master@deojon.com",
		Phone:         "010-1234-5678",
		Address:       "경기도 성남시 분당구 판교역로 166",
		DetailAddress: "카카오판교오피스 10층",
		Avatar:        avatar("master"),
		Role:          types.RoleMaster,
	}

	return Seed{
		Accounts: []services.Account{{User: master}},
		Projects: []types.Project{{
			ID:          "1",
			Title:       "영흥도 수질 진단 컨설팅",
			Description: "대부도 일대 수질 환경 기초 데이터 수집 및 정밀 진단 분석.",
			Status:      types.StatusInProgress,
			DueDate:     "2024-11-15",
			Members:     []string{avatar("user1"), avatar("user2"), avatar("user3")},
			CreatedAt:   day("2024-10-28"),
		}},
		Processes: []types.Process{{
			ID:          "pr1",
			ProjectID:   "1",
			Title:       "현장 수질 샘플 채취",
			Description: "영흥도 12개 지점 샘플링",
			StartDate:   "2024-11-01",
			EndDate:     "2024-11-05",
			Members:     []string{"https://picsum.photos/seed/user1/40/40"},
			IsCompleted: true,
			AuthorID:    "master",
			CreatedAt:   day("2024-11-01"),
		}},
		Tasks: []types.Task{
			{ID: "t3", Text: "공장 폐수 샘플 분석 요청", TargetDate: "2024-11-08", RegDate: "2024-11-01", Author: "이영희 과장", AuthorID: "user2", AuthorAvatar: avatar("user2"), IsPublic: true, CreatedAt: day("2024-11-01").Add(time.Hour)},
			{ID: "t2", Text: "개인 건강검진 예약", TargetDate: "2024-11-12", RegDate: "2024-11-02", Completed: true, Author: master.Name, AuthorID: master.ID, AuthorAvatar: master.Avatar, CreatedAt: day("2024-11-02")},
			{ID: "t1", Text: "주간 업무 보고서 작성", TargetDate: "2024-11-10", RegDate: "2024-11-01", Author: master.Name, AuthorID: master.ID, AuthorAvatar: master.Avatar, IsPublic: true, CreatedAt: day("2024-11-01")},
		},
		Posts: []types.BoardPost{
			{ID: "b3", Title: "탕비실 커피 원두 교체 건", Content: "스타벅스 파이크 플레이스 원두로 교체되었습니다. 즐거운 티타임 되세요!", Author: "박철수 대리", AuthorID: "user3", AuthorAvatar: avatar("user3"), RegDate: "2024-11-03", Views: 8, CreatedAt: day("2024-11-03")},
			{ID: "b2", Title: "연구실 장비 점검 안내", Content: "다음 주 월요일부터 수요일까지 연구실 내 수질 분석 장비 정기 점검이 예정되어 있습니다. 사용에 참고 부탁드립니다.", Author: master.Name, AuthorID: master.ID, AuthorAvatar: master.Avatar, RegDate: "2024-11-02", Views: 15, CreatedAt: day("2024-11-02")},
			{ID: "b1", Title: "신입 사원 환영회 공지", Content: "이번 주 금요일 오후 6시, 신입 사원 윤도현 님의 환영회가 있습니다. 장소는 회사 근처 일식집입니다.", Author: "이영희 과장", AuthorID: "user2", AuthorAvatar: avatar("user2"), RegDate: "2024-11-01", Views: 42, CreatedAt: day("2024-11-01")},
		},
	}
}
