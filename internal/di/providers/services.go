package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"librarycatalog/internal/book"
)

func ProvideBookService(i do.Injector) (*book.Service, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*slog.Logger](i)
	return book.NewService(storeHandle, log), nil
}

func ProvideBookHandler(i do.Injector) (*book.HTTPHandler, error) {
	service := do.MustInvoke[*book.Service](i)
	log := do.MustInvoke[*slog.Logger](i)
	return book.NewHTTPHandler(service, log), nil
}
