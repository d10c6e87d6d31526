// Package config loads crudgen configuration files and wires them into a
// running application.
//
// A configuration declares the store, its tables and the resources exposed
// over HTTP:
//
//	store:
//	  driver: sqlite
//	  dsn: file:people.db
//	  tables:
//	    - name: persons
//	      columns: [{name: firstName, type: text}, {name: parentId, type: integer}]
//	      relations: [{name: children, table: persons, foreignKey: parentId}]
//	resources:
//	  - chain: person
//	    table: persons
//	  - chain: [person, child]
//	    table: persons
//	    relation: {name: children, primaryKey: person_id}
//
// Files ending in .yaml or .yml are YAML, anything else is JSON. ${VAR} and
// ${VAR:-default} are expanded before parsing, and CRUDGEN_PORT,
// CRUDGEN_LOG_LEVEL, CRUDGEN_STORE_DRIVER and CRUDGEN_STORE_DSN override the
// file. Build turns a validated Config into an App.
package config
