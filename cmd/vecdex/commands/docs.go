package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	uuid "github.com/satori/go.uuid"
	"github.com/urfave/cli/v2"

	"github.com/vecdex/vecdex/storage"
)

// AddDoc stores a document. The vector is given as comma-separated floats;
// without --id a random identifier is generated.
func AddDoc(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("Usage: docs add <comma-separated-vector>")
	}
	vector, err := parseQueryVector(c.Args().Get(0))
	if err != nil {
		return err
	}

	id := c.String("id")
	if id == "" {
		id = uuid.NewV4().String()
	}

	store, closeStore, err := openStore(c)
	if err != nil {
		return err
	}
	defer closeStore()

	err = store.Add(&storage.Document{
		Id:      id,
		Vector:  vector.Bytes(),
		Payload: []byte(c.String("payload")),
	})
	if err != nil {
		return err
	}

	fmt.Printf("Stored document %s\n", id)
	return nil
}

func GetDoc(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("Usage: docs get <id>")
	}

	store, closeStore, err := openStore(c)
	if err != nil {
		return err
	}
	defer closeStore()

	doc, err := store.Get(c.Args().Get(0))
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"field", "value"})
	table.Append([]string{"id", doc.Id})
	table.Append([]string{"vector bytes", fmt.Sprintf("%d", len(doc.Vector))})
	table.Append([]string{"payload", string(doc.Payload)})
	table.Append([]string{"updated at", doc.UpdatedAt.Format(time.RFC3339)})
	table.Render()
	return nil
}

func DeleteDoc(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("Usage: docs delete <id>")
	}

	store, closeStore, err := openStore(c)
	if err != nil {
		return err
	}
	defer closeStore()

	return store.Delete(c.Args().Get(0))
}
