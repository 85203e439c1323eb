package metadata

// 建表语句；启动时执行，已存在则跳过
const (
	postgresSchema = `CREATE TABLE IF NOT EXISTS documents (
	id SERIAL PRIMARY KEY,
	filename VARCHAR NOT NULL UNIQUE,
	file_path VARCHAR NOT NULL,
	upload_date TIMESTAMP NOT NULL DEFAULT (now() AT TIME ZONE 'utc')
)`

	sqliteSchema = `CREATE TABLE IF NOT EXISTS documents (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	filename TEXT NOT NULL UNIQUE,
	file_path TEXT NOT NULL,
	upload_date TIMESTAMP NOT NULL
)`
)
