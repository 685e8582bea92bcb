package factory_test

import (
	"context"
	"fmt"
	"log"

	"github.com/unidb-io/unidb/pkg/batch"
	"github.com/unidb-io/unidb/pkg/config"
	"github.com/unidb-io/unidb/pkg/factory"
)

func Example() {
	ctx := context.Background()

	conn, err := factory.New(ctx, config.ConnectionDescriptor{
		Backend: config.BackendSQLite,
		Path:    config.InMemoryPath,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Execute(ctx, "CREATE TABLE fruit (id INTEGER, name TEXT)"); err != nil {
		log.Fatal(err)
	}

	id := batch.NewInt64Column("id")
	name := batch.NewStringColumn("name")
	_ = id.Append(int64(1))
	_ = name.Append("apple")
	rows, err := batch.FromColumns(id, name)
	if err != nil {
		log.Fatal(err)
	}

	outcome, err := conn.Insert(ctx, "fruit", rows)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("inserted:", outcome.RowsAffected)

	result, err := conn.Select(ctx, "fruit", nil, "", 0)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("name:", result.Value("name", 0))

	// Output:
	// inserted: 1
	// name: apple
}
