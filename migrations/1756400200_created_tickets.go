package migrations

import (
	"encoding/json"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		jsonData := `{
			"id": "tl_tickets",
			"name": "tickets",
			"type": "base",
			"system": false,
			"fields": [
				{
					"id": "text_tk_ticket_id",
					"name": "ticket_id",
					"type": "text",
					"required": true,
					"system": false
				},
				{
					"id": "text_tk_event_id",
					"name": "event_id",
					"type": "text",
					"required": true,
					"system": false
				},
				{
					"id": "number_tk_ticket_number",
					"name": "ticket_number",
					"type": "number",
					"required": false,
					"system": false
				},
				{
					"id": "text_tk_holder",
					"name": "holder",
					"type": "text",
					"required": true,
					"system": false
				},
				{
					"id": "bool_tk_is_soulbound",
					"name": "is_soulbound",
					"type": "bool",
					"required": false,
					"system": false
				},
				{
					"id": "bool_tk_checked_in",
					"name": "checked_in",
					"type": "bool",
					"required": false,
					"system": false
				},
				{
					"id": "text_tk_proof_hash",
					"name": "proof_hash",
					"type": "text",
					"required": false,
					"system": false
				},
				{
					"id": "text_tk_minted_at",
					"name": "minted_at",
					"type": "text",
					"required": false,
					"system": false
				},
				{
					"id": "text_tk_metadata_uri",
					"name": "metadata_uri",
					"type": "text",
					"required": false,
					"system": false
				}
			],
			"indexes": [
				"CREATE UNIQUE INDEX idx_tickets_ticket_id ON tickets (ticket_id)",
				"CREATE INDEX idx_tickets_event_id ON tickets (event_id)",
				"CREATE INDEX idx_tickets_holder ON tickets (holder)"
			],
			"listRule": null,
			"viewRule": null,
			"createRule": null,
			"updateRule": null,
			"deleteRule": null
		}`

		collection := &core.Collection{}
		if err := json.Unmarshal([]byte(jsonData), collection); err != nil {
			return err
		}

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("tl_tickets")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
