package bot

import (
	"context"
	"fmt"

	"classpublisher/internal/domain"
	"classpublisher/internal/publish"
)

func (b *Bot) handleStart(ctx context.Context) error {
	return b.transport.SendMessage(ctx,
		"¡Hola! 👋 Soy el bot de publicación de clases.\n"+
			"Comandos disponibles:\n"+
			"   /start - Muestra este mensaje\n"+
			"   /publish - Publica la última clase de Vimeo\n"+
			"   /delete - Elimina un post reciente")
}

func (b *Bot) handlePublish(ctx context.Context) error {
	return b.PublishLatest(ctx)
}

// PublishLatest drives the interactive publish flow: fetch the latest
// video, ask for confirmation, ask which trainer's image to feature, then
// run the pipeline with forcePublish. The scheduler invokes it too.
func (b *Bot) PublishLatest(ctx context.Context) error {
	_ = b.transport.SendMessage(ctx, "📹 Obteniendo último video de Vimeo...")

	latest, err := b.videos.GetLatestVideo(ctx)
	if err != nil {
		b.reportError(ctx, err)
		return err
	}
	if latest == nil {
		_ = b.transport.SendMessage(ctx, "No se encontró ningún video en Vimeo")
		return nil
	}
	_ = b.transport.SendMessage(ctx, fmt.Sprintf("✅ Video encontrado: %s", latest.Name))

	day := domain.EffectiveDay(b.now())

	confirmed, err := b.broker.AskPublishConfirmation(ctx,
		fmt.Sprintf("¿Quieres publicar la clase de hoy?\n\nVideo: %s", latest.Link))
	if err != nil {
		b.reportError(ctx, err)
		return err
	}
	if !confirmed {
		b.logger.Info().Msg("bot: publish cancelled by operator")
		return b.transport.SendMessage(ctx, "❌ Publicación cancelada por el usuario")
	}

	_ = b.transport.SendMessage(ctx, "👤 Solicitando selección de entrenador...")
	thumbnailID, err := b.broker.AskTrainerImage(ctx, day)
	if err != nil {
		b.reportError(ctx, err)
		return err
	}
	if thumbnailID == "" {
		return b.transport.SendMessage(ctx, "❌ Publicación cancelada por el usuario")
	}
	_ = b.transport.SendMessage(ctx, "✅ Imagen seleccionada")

	_ = b.transport.SendMessage(ctx, "📝 Publicando post...")
	result, err := b.publisher.Run(ctx, publish.Options{
		Day:          day,
		VideoID:      latest.ID(),
		ThumbnailID:  thumbnailID,
		ForcePublish: true,
	})
	if err != nil {
		b.reportError(ctx, err)
		return err
	}

	return b.transport.SendMessage(ctx,
		fmt.Sprintf("🎉 ¡Clase publicada exitosamente!\n🌐 URL: %s", result.PostURL))
}

func (b *Bot) handleDelete(ctx context.Context) error {
	posts, err := b.posts.ListRecentPosts(ctx, 5)
	if err != nil {
		b.reportError(ctx, err)
		return err
	}
	if len(posts) == 0 {
		return b.transport.SendMessage(ctx, "No hay posts recientes para eliminar.")
	}

	selected, err := b.broker.AskPostSelection(ctx, posts)
	if err != nil {
		b.reportError(ctx, err)
		return err
	}
	if selected == nil {
		return b.transport.SendMessage(ctx, "❌ Eliminación cancelada")
	}

	confirmed, err := b.broker.AskPublishConfirmation(ctx,
		fmt.Sprintf("¿Seguro que quieres eliminar \"%s\"?", selected.Title.Rendered))
	if err != nil {
		b.reportError(ctx, err)
		return err
	}
	if !confirmed {
		return b.transport.SendMessage(ctx, "❌ Eliminación cancelada")
	}

	if err := b.posts.DeletePost(ctx, selected.ID); err != nil {
		b.reportError(ctx, err)
		return err
	}
	b.logger.Info().Int("post_id", selected.ID).Msg("bot: post deleted")
	return b.transport.SendMessage(ctx, fmt.Sprintf("🗑️ Post eliminado: %s", selected.Title.Rendered))
}

func (b *Bot) reportError(ctx context.Context, err error) {
	_ = b.transport.SendMessage(ctx, fmt.Sprintf("Error al procesar la solicitud:\n%s", err.Error()))
}
