package matching

import (
	"github.com/minsukang/dalligo-backend/pkg/db/models"
	"github.com/minsukang/dalligo-backend/pkg/enums"
)

func newShopperRequest(postingID, runnerID int64) *models.ShopperRequest {
	return &models.ShopperRequest{
		PostingID: postingID,
		RunnerID:  runnerID,
		Status:    enums.MatchStatusRequesting,
	}
}

func newRunnerRequest(postingID, shopperID int64, shopperPostingID *int64) *models.RunnerRequest {
	return &models.RunnerRequest{
		PostingID:        postingID,
		ShopperID:        shopperID,
		ShopperPostingID: shopperPostingID,
		Status:           enums.MatchStatusRequesting,
	}
}
