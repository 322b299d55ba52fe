package console

// Console API paths, relative to the configured base URL
const (
	PathLogin                 = "/api/login"
	PathGetStatus             = "/api/get_status"
	PathGetPlayers            = "/api/get_players"
	PathGetDetailedPlayers    = "/api/get_detailed_players"
	PathGetPlayerIDs          = "/api/get_playerids"
	PathGetVipIDs             = "/api/get_vip_ids"
	PathGetAdminIDs           = "/api/get_admin_ids"
	PathGetPlayerInfo         = "/api/get_player_info"
	PathGetDetailedPlayerInfo = "/api/get_detailed_player_info"
	PathGetPlayersHistory     = "/api/get_players_history"
	PathSetBroadcast          = "/api/set_broadcast"
	PathMessagePlayer         = "/api/message_player"
	PathLegacyBroadcast       = "/api/broadcast"
	PathGetLiveGameStats      = "/api/get_live_game_stats"
)
