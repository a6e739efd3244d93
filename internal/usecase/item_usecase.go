package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"rebirth/internal/domain/model"
	repo "rebirth/internal/repository"

	"github.com/sirupsen/logrus"
)

const (
	msgImageMissing   = "이미지가 존재하지 않습니다."
	msgTooManyImages  = "이미지의 수가 너무 많습니다."
	msgInvalidOptions = "invalid option"
)

// 商品画像の保存先。返すのは公開URL。
type ImageStore interface {
	Save(ctx context.Context, filename string, data []byte) (string, error)
}

// アップロードされた画像1枚
type ImageUpload struct {
	Filename string
	Data     []byte
}

// 追加・更新の入力。OptionJSONは {"color":[..],"size":[..]} の文字列。
type ItemInput struct {
	Category   string
	Name       string
	Price      int64
	OptionJSON string
	Content    string
}

type ItemPage struct {
	Items       []model.Item `json:"items"`
	Count       int64        `json:"count"`
	TotalPages  int          `json:"totalPages"`
	CurrentPage int          `json:"currentPage"`
}

type ItemUsecase struct {
	tx     repo.TransactionManager
	items  repo.ItemRepository
	images ImageStore
	logger logrus.FieldLogger
}

func NewItemUsecase(tx repo.TransactionManager, items repo.ItemRepository, images ImageStore, logger logrus.FieldLogger) *ItemUsecase {
	return &ItemUsecase{tx: tx, items: items, images: images, logger: logger}
}

func (u *ItemUsecase) ListItems(ctx context.Context) ([]model.Item, error) {
	items, err := u.items.ListAll(ctx)
	if err != nil {
		return nil, u.dbError(err, "list items")
	}
	return items, nil
}

func (u *ItemUsecase) ListItemsPage(ctx context.Context, page, limit int) (ItemPage, error) {
	return u.list(ctx, repo.ItemListQuery{Page: page, Limit: limit})
}

func (u *ItemUsecase) ListItemsByCategory(ctx context.Context, category string, page, limit int) (ItemPage, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return ItemPage{}, BadRequest("category required")
	}
	return u.list(ctx, repo.ItemListQuery{Page: page, Limit: limit, Category: category})
}

func (u *ItemUsecase) list(ctx context.Context, q repo.ItemListQuery) (ItemPage, error) {
	if q.Page < 1 {
		return ItemPage{}, BadRequest(msgInvalidPage)
	}
	if q.Limit < 1 || q.Limit > 100 {
		return ItemPage{}, BadRequest(msgInvalidLimit)
	}

	items, total, err := u.items.List(ctx, q)
	if err != nil {
		return ItemPage{}, u.dbError(err, "list items")
	}
	return ItemPage{
		Items:       items,
		Count:       total,
		TotalPages:  totalPages(total, q.Limit),
		CurrentPage: q.Page,
	}, nil
}

func (u *ItemUsecase) GetItem(ctx context.Context, itemID int64) (model.Item, error) {
	if itemID <= 0 {
		return model.Item{}, BadRequest("invalid item id")
	}
	it, err := u.items.FindByID(ctx, itemID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Item{}, NotFound(msgItemNotFound)
	}
	if err != nil {
		return model.Item{}, u.dbError(err, "find item")
	}
	return it, nil
}

// detailCountが負なら詳細画像の枚数は見ない
func (u *ItemUsecase) AddItem(ctx context.Context, actor Requester, in ItemInput, image *ImageUpload, details []ImageUpload, detailCount int) (model.Item, error) {
	if !actor.IsAdmin() {
		return model.Item{}, Forbidden("forbidden")
	}
	item, err := parseItemInput(in)
	if err != nil {
		return model.Item{}, err
	}
	if err := checkImages(image, details, detailCount); err != nil {
		return model.Item{}, err
	}

	if err := u.storeImages(ctx, &item, image, details); err != nil {
		return model.Item{}, err
	}

	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now
	created, err := u.items.Create(ctx, item)
	if err != nil {
		return model.Item{}, u.dbError(err, "create item")
	}
	return created, nil
}

func (u *ItemUsecase) UpdateItem(ctx context.Context, actor Requester, itemID int64, in ItemInput, image *ImageUpload, details []ImageUpload, detailCount int) (model.Item, error) {
	if !actor.IsAdmin() {
		return model.Item{}, Forbidden("forbidden")
	}
	if itemID <= 0 {
		return model.Item{}, BadRequest("invalid item id")
	}
	item, err := parseItemInput(in)
	if err != nil {
		return model.Item{}, err
	}
	if err := checkImages(image, details, detailCount); err != nil {
		return model.Item{}, err
	}

	//存在確認してから画像を書く
	if _, err := u.GetItem(ctx, itemID); err != nil {
		return model.Item{}, err
	}
	if err := u.storeImages(ctx, &item, image, details); err != nil {
		return model.Item{}, err
	}

	item.ID = itemID
	err = u.items.Update(ctx, item)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Item{}, NotFound(msgItemNotFound)
	}
	if err != nil {
		return model.Item{}, u.dbError(err, "update item")
	}
	return u.GetItem(ctx, itemID)
}

// 論理削除。1件も消えなければ404。
func (u *ItemUsecase) DeleteItems(ctx context.Context, actor Requester, itemIDs []int64) (int64, error) {
	if !actor.IsAdmin() {
		return 0, Forbidden("forbidden")
	}
	ids := uniqueInt64(itemIDs)
	if len(ids) == 0 {
		return 0, BadRequest("itemIds required")
	}

	var deleted int64
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Items().FindByIDsUnscoped(ctx, ids)
		if err != nil {
			return u.dbError(err, "find items")
		}

		n, err := r.Items().SoftDeleteMany(ctx, ids)
		if err != nil {
			return u.dbError(err, "delete items")
		}
		if n == 0 {
			return NotFound(msgItemNotFound)
		}
		deleted = n

		now := time.Now()
		for _, it := range before {
			if it.DeletedAt.Valid {
				continue
			}
			b, _ := json.Marshal(map[string]any{"name": it.Name, "price": it.Price})
			if err := r.AuditLogs().Create(ctx, model.AuditLog{
				ActorUserID:  actor.UserID,
				Action:       model.AuditActionDeleteItem,
				ResourceType: model.AuditResourceItem,
				ResourceID:   strconv.FormatInt(it.ID, 10),
				BeforeJSON:   string(b),
				AfterJSON:    `{"deleted":true}`,
				CreatedAt:    now,
			}); err != nil {
				return u.dbError(err, "create audit log")
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func (u *ItemUsecase) storeImages(ctx context.Context, item *model.Item, image *ImageUpload, details []ImageUpload) error {
	url, err := u.images.Save(ctx, image.Filename, image.Data)
	if err != nil {
		u.logger.WithError(err).Error("save item image")
		return Internal("image upload failed")
	}
	item.ImageURL = url

	item.DetailImageURLs = make([]string, 0, len(details))
	for _, d := range details {
		url, err := u.images.Save(ctx, d.Filename, d.Data)
		if err != nil {
			u.logger.WithError(err).Error("save detail image")
			return Internal("image upload failed")
		}
		item.DetailImageURLs = append(item.DetailImageURLs, url)
	}
	return nil
}

func (u *ItemUsecase) dbError(err error, op string) error {
	u.logger.WithError(err).WithField("op", op).Error("item store error")
	return Internal(msgDBError)
}

func parseItemInput(in ItemInput) (model.Item, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Item{}, BadRequest("name required")
	}
	if in.Price < 0 {
		return model.Item{}, BadRequest("price must be >= 0")
	}

	var opts model.ItemOptions
	if raw := strings.TrimSpace(in.OptionJSON); raw != "" {
		if err := json.Unmarshal([]byte(raw), &opts); err != nil {
			return model.Item{}, BadRequest(msgInvalidOptions)
		}
	}
	opts.Colors = trimAll(opts.Colors)
	opts.Sizes = trimAll(opts.Sizes)

	return model.Item{
		Category: strings.TrimSpace(in.Category),
		Name:     name,
		Price:    in.Price,
		Options:  opts,
		Content:  in.Content,
	}, nil
}

func checkImages(image *ImageUpload, details []ImageUpload, detailCount int) error {
	if image == nil || len(image.Data) == 0 {
		return BadRequest(msgImageMissing)
	}
	if detailCount >= 0 && len(details) > detailCount {
		return BadRequest(msgTooManyImages)
	}
	return nil
}

func trimAll(vs []string) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
