package sqlstore

import "lightbnb/internal/storage/query"

// Statements use ? markers; Repo rebinds them for the configured dialect.

const userColumns = `id, name, email, password`

const getUserWithEmailSQL = `
SELECT ` + userColumns + `
FROM users
WHERE email = ?`

const getUserWithIDSQL = `
SELECT ` + userColumns + `
FROM users
WHERE id = ?`

const insertUserSQL = `
INSERT INTO users (name, email, password)
VALUES (?, ?, ?)`

// Postgres only; MySQL reads the id from LastInsertId.
const insertUserReturning = `
RETURNING ` + userColumns

// Upcoming reservations for one guest with the property and its mean rating.
// Grouping on both ids keeps one row per reservation.
const getAllReservationsSQL = `
SELECT
  reservations.id,
  reservations.guest_id,
  reservations.property_id,
  reservations.start_date,
  reservations.end_date,
  ` + query.PropertyColumns + `,
  AVG(property_reviews.rating) AS average_rating
FROM reservations
JOIN properties ON reservations.property_id = properties.id
JOIN property_reviews ON property_reviews.property_id = properties.id
WHERE reservations.guest_id = ? AND reservations.start_date >= CURRENT_DATE
GROUP BY reservations.id, properties.id
ORDER BY reservations.start_date
LIMIT ?`
