package model

import "strings"

type ContentType string

const (
	ContentVideo          ContentType = "video"
	ContentMusic          ContentType = "music"
	ContentMeditation     ContentType = "meditation"
	ContentQuiz           ContentType = "quiz"
	ContentArticle        ContentType = "article"
	ContentLearningModule ContentType = "learning_module"
)

var ContentTypes = []ContentType{
	ContentVideo, ContentMusic, ContentMeditation, ContentQuiz, ContentArticle, ContentLearningModule,
}

type Category string

const (
	CategorySleep          Category = "sleep"
	CategoryAnxiety        Category = "anxiety"
	CategorySelfConfidence Category = "self_confidence"
	CategoryWork           Category = "work"
)

// Categories 顺序固定，探索推荐依赖它做随机抽样
var Categories = []Category{
	CategorySleep, CategoryAnxiety, CategorySelfConfidence, CategoryWork,
}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// Title 把 "self_confidence" 转成 "Self Confidence"，用于推荐理由
func (c Category) Title() string {
	words := strings.Split(string(c), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func (t ContentType) Valid() bool {
	for _, v := range ContentTypes {
		if v == t {
			return true
		}
	}
	return false
}

// swagger:model Content
type Content struct {
	BaseModel
	Title        string      `gorm:"size:255;not null" json:"title"`
	Description  string      `gorm:"type:text" json:"description"`
	ContentType  ContentType `gorm:"size:32;index;not null" json:"contentType"`
	Category     Category    `gorm:"size:32;index;not null" json:"category"`
	URL          string      `gorm:"size:500;not null" json:"url"`
	ThumbnailURL string      `gorm:"size:500" json:"thumbnailUrl"`
	Duration     int         `gorm:"default:0" json:"duration"` // 秒
	CreatedBy    uint        `gorm:"index" json:"createdBy"`
}

func (Content) TableName() string {
	return "content"
}

// ContentFilter 目录查询条件，零值字段不参与过滤
type ContentFilter struct {
	Category     Category
	ContentTypes []ContentType
	ExcludeIDs   []uint
	Search       string
	Limit        int
	Offset       int
}
