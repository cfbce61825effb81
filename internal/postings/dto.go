package postings

import "time"

// CreateShopperPostingInput is the payload for opening a shopper posting.
type CreateShopperPostingInput struct {
	Title             string              `json:"title" validate:"required,max=200"`
	Contents          string              `json:"contents" validate:"required,max=4000"`
	Priority          string              `json:"priority" validate:"omitempty,oneof=FREE NORMAL URGENT"`
	StartReceiveTime  string              `json:"startReceiveTime" validate:"required"`
	EndReceiveTime    string              `json:"endReceiveTime" validate:"required"`
	ReceiveDate       *time.Time          `json:"receiveDate"`
	ReceiveAddress    string              `json:"receiveAddress" validate:"required,max=500"`
	AdditionalMessage *string             `json:"additionalMessage" validate:"omitempty,max=1000"`
	EstimatedPrice    int                 `json:"estimatedPrice" validate:"gte=0"`
	RunnerTip         int                 `json:"runnerTip" validate:"gte=0"`
	Items             []PostingItemInput  `json:"items" validate:"omitempty,dive"`
	Images            []PostingImageInput `json:"images" validate:"omitempty,dive"`
}

// PostingItemInput is one line item on a shopper posting.
type PostingItemInput struct {
	Name  string `json:"name" validate:"required,max=200"`
	Count int    `json:"count" validate:"gte=1"`
	Price int    `json:"price" validate:"gte=0"`
}

// PostingImageInput is one attached image on a shopper posting.
type PostingImageInput struct {
	FileName string `json:"fileName" validate:"required,max=300"`
	FileSize int    `json:"fileSize" validate:"gte=0"`
	URL      string `json:"url" validate:"required,url"`
}

// CreateRunnerPostingInput is the payload for opening a runner posting.
type CreateRunnerPostingInput struct {
	Message              string  `json:"message" validate:"required,max=1000"`
	EstimatedSchedule    string  `json:"estimatedSchedule" validate:"required,max=300"`
	Introduce            *string `json:"introduce" validate:"omitempty,max=1000"`
	Radius               string  `json:"radius" validate:"required"`
	Address              string  `json:"address" validate:"required,max=500"`
	StartContactableTime string  `json:"startContactableTime" validate:"required"`
	EndContactableTime   string  `json:"endContactableTime" validate:"required"`
	Payments             string  `json:"payments" validate:"required,max=200"`
}
