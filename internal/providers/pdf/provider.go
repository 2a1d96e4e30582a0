package pdf

import (
	invoicedomain "github.com/smallbiznis/invoicer/internal/invoice/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("pdf",
	fx.Provide(
		fx.Annotate(New, fx.As(new(invoicedomain.PDFGenerator))),
	),
)
