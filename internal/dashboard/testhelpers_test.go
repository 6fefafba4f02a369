package dashboard

import (
	"github.com/sells-group/postmetrics/internal/columns"
	"github.com/sells-group/postmetrics/internal/dataset"
)

// fixture builds rows and their resolved columns from a header and records.
func fixture(header []string, records ...[]string) ([]dataset.Row, columns.ColumnMap) {
	ds := dataset.New("test.csv", header, records)
	return ds.Rows, columns.Resolve(ds.Headers)
}

var postHeader = []string{
	"Nome", "Data de Criação do Post", "Total de Interações", "Visualizações",
	"Curtidas", "Comentários", "URL", "Partido", "Estado",
}
