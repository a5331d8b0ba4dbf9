package decoder

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx" //make alias name the package to sqlx
)

func ConnectToDatabase(user string, pass string, host string, dbname string) (*sqlx.DB, error) {
	port := "3306"
	dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
	db, err := sqlx.Connect("mysql", dbURI)
	return db, err
}

// LoadWhitelist reads the whitelisted channels valid for a run and adds
// them to whitelist.
func LoadWhitelist(db *sqlx.DB, runNumber int, whitelist *ChannelWhitelist, verbosity int) error {
	query := "SELECT Module, Channel FROM RawEventWhitelist WHERE MinRun <= ? and MaxRun >= ? ORDER BY Module, Channel"
	if verbosity > 0 {
		logger.Info("Reading raw event whitelist from database", "database")
	}
	if verbosity > 2 {
		message := fmt.Sprintf("Query: %s (run %d)", query, runNumber)
		logger.Info(message, "database")
	}

	rows, err := db.Queryx(query, runNumber, runNumber)
	if err != nil {
		return fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		result := ChannelAddress{}
		err := rows.StructScan(&result)
		if err != nil {
			return fmt.Errorf("error scanning DB row: %w", err)
		}
		whitelist.Add(result.Module, result.Channel)
	}
	return rows.Err()
}

// LoadChannelMap reads the detector assigned to each channel for a run.
func LoadChannelMap(db *sqlx.DB, runNumber int, verbosity int) (ChannelMap, error) {
	query := "SELECT Module, Channel, Type, Subtype, Location FROM ChannelMapping WHERE MinRun <= ? and MaxRun >= ? ORDER BY Module, Channel"
	if verbosity > 0 {
		logger.Info("Channel mapping read from DB", "database")
	}
	if verbosity > 2 {
		message := fmt.Sprintf("Query: %s (run %d)", query, runNumber)
		logger.Info(message, "database")
	}

	channelMap := ChannelMap{ByAddress: make(map[ChannelAddress]ChannelMapEntry)}
	rows, err := db.Queryx(query, runNumber, runNumber)
	if err != nil {
		return channelMap, fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		result := ChannelMapEntry{}
		err := rows.StructScan(&result)
		if err != nil {
			return ChannelMap{}, fmt.Errorf("error scanning DB row: %w", err)
		}
		address := ChannelAddress{Module: result.Module, Channel: result.Channel}
		channelMap.ByAddress[address] = result
	}
	return channelMap, rows.Err()
}

// LoadDatabase fills the whitelist and returns the channel map for a run.
func LoadDatabase(db *sqlx.DB, runNumber int, whitelist *ChannelWhitelist, verbosity int) (ChannelMap, error) {
	if err := LoadWhitelist(db, runNumber, whitelist, verbosity); err != nil {
		errMessage := fmt.Errorf("error getting whitelist from database: %w", err)
		logger.Error(errMessage.Error())
		return ChannelMap{}, errMessage
	}
	channelMap, err := LoadChannelMap(db, runNumber, verbosity)
	if err != nil {
		errMessage := fmt.Errorf("error getting channel map from database: %w", err)
		logger.Error(errMessage.Error())
		return ChannelMap{}, errMessage
	}
	return channelMap, nil
}
