package core

import "time"

// UserProfile 是用户画像的核心抽象。
//
// 在书籍推荐里它只承载两类信号：
//
//	维度          作用
//	类别兴趣      个性化打分（genre affinity）
//	已看集合      候选池过滤（已看过的书不再推荐）
//
// 画像由调用方从浏览历史聚合得到，引擎本身不读写历史。
type UserProfile struct {
	UserID string

	// Interests 是类别兴趣：小写类别 -> 累计浏览次数
	Interests GenreProfile

	// Seen 是已浏览过的书籍 ID 集合
	Seen map[string]struct{}

	// LastViewedAt 是最近一次浏览时间
	LastViewedAt time.Time

	// UpdateTime 是画像最后更新时间
	UpdateTime time.Time
}

// NewUserProfile 创建一个新的用户画像。
func NewUserProfile(userID string) *UserProfile {
	return &UserProfile{
		UserID:     userID,
		Interests:  make(GenreProfile),
		Seen:       make(map[string]struct{}),
		UpdateTime: time.Now(),
	}
}

// BuildUserProfile 把浏览记录聚合成画像：
// 每条记录的浏览次数累加到该书的所有类别上，并把书加入已看集合。
// 目录中找不到的书只计入已看集合；目录中 ID 重复时以第一次出现为准。
func BuildUserProfile(userID string, views []View, catalog Corpus) *UserProfile {
	p := NewUserProfile(userID)
	byID := make(map[string]int, len(catalog))
	for i := range catalog {
		if _, dup := byID[catalog[i].ID]; !dup {
			byID[catalog[i].ID] = i
		}
	}
	for _, v := range views {
		if v.BookID == "" {
			continue
		}
		p.MarkSeen(v.BookID)
		if v.LastViewedAt.After(p.LastViewedAt) {
			p.LastViewedAt = v.LastViewedAt
		}
		idx, ok := byID[v.BookID]
		if !ok {
			continue
		}
		count := v.Count
		if count <= 0 {
			count = 1
		}
		p.Interests.Add(catalog[idx].Genres, float64(count))
	}
	return p
}

// MarkSeen 记录已看过的书。
func (p *UserProfile) MarkSeen(bookID string) {
	if p.Seen == nil {
		p.Seen = make(map[string]struct{})
	}
	p.Seen[bookID] = struct{}{}
	p.UpdateTime = time.Now()
}

// HasSeen 判断书是否已看过。
func (p *UserProfile) HasSeen(bookID string) bool {
	if p == nil || p.Seen == nil {
		return false
	}
	_, ok := p.Seen[bookID]
	return ok
}

// HasHistory 判断画像是否有可用于个性化的兴趣。
func (p *UserProfile) HasHistory() bool {
	return p != nil && len(p.Interests) > 0 && p.Interests.Total() > 0
}

// UpdateInterest 直接设置某个类别的兴趣权重。
func (p *UserProfile) UpdateInterest(genre string, weight float64) {
	if p.Interests == nil {
		p.Interests = make(GenreProfile)
	}
	p.Interests[NormalizeGenre(genre)] = weight
	p.UpdateTime = time.Now()
}

// GetInterestWeight 获取兴趣权重。
func (p *UserProfile) GetInterestWeight(genre string) float64 {
	if p == nil || p.Interests == nil {
		return 0
	}
	return p.Interests[NormalizeGenre(genre)]
}
